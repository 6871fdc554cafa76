package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carteirinha/internal/student/models"
	"carteirinha/internal/student/store"
	"carteirinha/pkg/domain"
	"carteirinha/pkg/platform/sentinel"
)

// collidingStore reports every probed code as taken and counts the probes.
type collidingStore struct {
	matriculaProbes int
	usageProbes     int
}

func (c *collidingStore) FindByCPF(context.Context, domain.CPF) (models.Student, error) {
	return models.Student{}, sentinel.ErrNotFound
}
func (c *collidingStore) FindByUsageCode(context.Context, string) (models.Student, error) {
	return models.Student{}, sentinel.ErrNotFound
}
func (c *collidingStore) Create(_ context.Context, st models.Student) (models.Student, error) {
	return st, nil
}
func (c *collidingStore) Update(context.Context, domain.CPF, models.StudentPatch) (models.Student, error) {
	return models.Student{}, sentinel.ErrNotFound
}
func (c *collidingStore) Delete(context.Context, domain.CPF) error { return nil }
func (c *collidingStore) MatriculaExists(context.Context, string) (bool, error) {
	c.matriculaProbes++
	return true, nil
}
func (c *collidingStore) UsageCodeExists(context.Context, string) (bool, error) {
	c.usageProbes++
	return true, nil
}

var _ store.StudentStore = (*collidingStore)(nil)

func newCodeService(st store.StudentStore) *Service {
	return New(st, nil, slog.New(slog.DiscardHandler), nil)
}

var (
	matriculaPattern = regexp.MustCompile(`^[1-9]\d{5}$`)
	usageCodePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)
)

func TestCodeFormats(t *testing.T) {
	for i := 0; i < 200; i++ {
		assert.Regexp(t, matriculaPattern, randomMatricula())
		assert.Regexp(t, usageCodePattern, randomUsageCode())
	}
}

func TestUniqueCodes_FreeCandidateAcceptedImmediately(t *testing.T) {
	svc := newCodeService(store.NewInMemory())

	m, err := svc.uniqueMatricula(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, matriculaPattern, m)

	u, err := svc.uniqueUsageCode(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, usageCodePattern, u)
}

// With every probe colliding, the generator must stop at the retry bound and
// accept the final (unprobed) candidate rather than loop forever.
func TestUniqueCodes_BoundedRetryThenAccept(t *testing.T) {
	st := &collidingStore{}
	svc := newCodeService(st)

	m, err := svc.uniqueMatricula(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, matriculaPattern, m)
	assert.Equal(t, maxCodeAttempts, st.matriculaProbes)

	u, err := svc.uniqueUsageCode(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, usageCodePattern, u)
	assert.Equal(t, maxCodeAttempts, st.usageProbes)
}

// A code that collided on a probe is never the one returned: each retry draws
// a fresh candidate.
func TestUniqueCodes_CollidedCandidateNeverReturned(t *testing.T) {
	st := store.NewInMemory()
	svc := newCodeService(st)

	taken := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := svc.uniqueUsageCode(context.Background())
		require.NoError(t, err)
		assert.False(t, taken[code], "returned a code that already exists")
		taken[code] = true
		seedUsageCode(t, st, code, i)
	}
}

// seedUsageCode inserts a throwaway record occupying the given usage code so
// later draws see it as taken.
func seedUsageCode(t *testing.T, st *store.InMemoryStudentStore, code string, n int) {
	t.Helper()
	cpf, err := domain.ParseCPF(fmt.Sprintf("%011d", n))
	require.NoError(t, err)
	_, err = st.Create(context.Background(), models.Student{
		CPF:       cpf,
		Matricula: fmt.Sprintf("%06d", 900000+n),
		UsageCode: code,
	})
	require.NoError(t, err)
}
