//go:build integration

package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"carteirinha/internal/student/models"
	"carteirinha/pkg/domain"
	"carteirinha/pkg/platform/sentinel"
	"carteirinha/pkg/testutil/containers"
)

type PostgresStudentStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStudentStore
}

func (s *PostgresStudentStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.Require().NoError(ApplyMigrations(s.pg.DB))
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresStudentStoreSuite) SetupTest() {
	_, err := s.pg.DB.Exec("TRUNCATE students")
	s.Require().NoError(err)
}

func TestPostgresStudentStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStudentStoreSuite))
}

func (s *PostgresStudentStoreSuite) seed(cpf, matricula, usageCode string) models.Student {
	parsed, err := domain.ParseCPF(cpf)
	s.Require().NoError(err)
	created, err := s.store.Create(context.Background(), models.Student{
		ID:          uuid.New(),
		CPF:         parsed,
		Name:        "ANA SILVA",
		RG:          "MG1234567",
		BirthDate:   "1999-01-01",
		Course:      "Direito",
		PhotoURL:    "http://localhost:8080/photos/seed.jpg",
		Institution: models.Institution,
		Level:       models.Level,
		Matricula:   matricula,
		UsageCode:   usageCode,
		Validity:    models.Validity,
	})
	s.Require().NoError(err)
	return created
}

func (s *PostgresStudentStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	created := s.seed("123.456.789-00", "123456", "AB12CD34")

	s.False(created.CreatedAt.IsZero())
	s.False(created.UpdatedAt.IsZero())

	found, err := s.store.FindByCPF(ctx, created.CPF)
	s.Require().NoError(err)
	s.Equal(created.Matricula, found.Matricula)
	s.Equal(created.Name, found.Name)

	byCode, err := s.store.FindByUsageCode(ctx, "AB12CD34")
	s.Require().NoError(err)
	s.Equal(created.CPF, byCode.CPF)
}

func (s *PostgresStudentStoreSuite) TestMissesAreNotFound() {
	ctx := context.Background()
	cpf, _ := domain.ParseCPF("999.999.999-99")

	_, err := s.store.FindByCPF(ctx, cpf)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByUsageCode(ctx, "ZZZZ0000")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStudentStoreSuite) TestUniqueIndexes() {
	ctx := context.Background()
	s.seed("123.456.789-00", "123456", "AB12CD34")

	dup := func(cpf, matricula, usageCode string) error {
		parsed, err := domain.ParseCPF(cpf)
		s.Require().NoError(err)
		_, err = s.store.Create(ctx, models.Student{
			ID:        uuid.New(),
			CPF:       parsed,
			Matricula: matricula,
			UsageCode: usageCode,
		})
		return err
	}

	s.ErrorIs(dup("123.456.789-00", "654321", "XY98ZW76"), sentinel.ErrConflict, "duplicate cpf")
	s.ErrorIs(dup("111.222.333-44", "123456", "XY98ZW76"), sentinel.ErrConflict, "duplicate matricula")
	s.ErrorIs(dup("111.222.333-44", "654321", "AB12CD34"), sentinel.ErrConflict, "duplicate usage code")
}

func (s *PostgresStudentStoreSuite) TestSparseUpdate() {
	ctx := context.Background()
	created := s.seed("123.456.789-00", "123456", "AB12CD34")

	name := "ANA SOUZA"
	updated, err := s.store.Update(ctx, created.CPF, models.StudentPatch{Name: &name})
	s.Require().NoError(err)
	s.Equal("ANA SOUZA", updated.Name)
	s.Equal(created.RG, updated.RG)
	s.Equal(created.Course, updated.Course)
	s.True(updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))

	cpf, _ := domain.ParseCPF("999.999.999-99")
	_, err = s.store.Update(ctx, cpf, models.StudentPatch{Name: &name})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStudentStoreSuite) TestDelete() {
	ctx := context.Background()
	created := s.seed("123.456.789-00", "123456", "AB12CD34")

	s.Require().NoError(s.store.Delete(ctx, created.CPF))
	s.Require().ErrorIs(s.store.Delete(ctx, created.CPF), sentinel.ErrNotFound)
}

func (s *PostgresStudentStoreSuite) TestExistenceProbes() {
	ctx := context.Background()
	s.seed("123.456.789-00", "123456", "AB12CD34")

	exists, err := s.store.MatriculaExists(ctx, "123456")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.MatriculaExists(ctx, "654321")
	s.Require().NoError(err)
	s.False(exists)

	exists, err = s.store.UsageCodeExists(ctx, "AB12CD34")
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.UsageCodeExists(ctx, "XY98ZW76")
	s.Require().NoError(err)
	s.False(exists)
}
