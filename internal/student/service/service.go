// Package service implements the registration and identity-record lifecycle:
// lookup by CPF, registration with code assignment, sparse profile updates,
// photo upload orchestration, and usage-code validation. Transport and storage
// concerns live in other layers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"carteirinha/internal/photo"
	"carteirinha/internal/platform/metrics"
	"carteirinha/internal/student/models"
	"carteirinha/internal/student/store"
	"carteirinha/pkg/domain"
	pkgerrors "carteirinha/pkg/errors"
	"carteirinha/pkg/platform/sentinel"
)

const birthDateLayout = "2006-01-02"

// Service adapts the record lifecycle into a callable façade for the screen
// controller and the HTTP handlers.
type Service struct {
	logger  *slog.Logger
	store   store.StudentStore
	photos  photo.Store
	metrics *metrics.Metrics
	lookups singleflight.Group
}

// New wires the service with its persistence and blob-store dependencies.
func New(st store.StudentStore, photos photo.Store, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		logger:  logger,
		store:   st,
		photos:  photos,
		metrics: m,
	}
}

// Lookup resolves a CPF to a record. A miss is reported as CodeNotFound so the
// caller can route to registration; any backend failure is CodeUnavailable.
// Identical concurrent lookups are collapsed into a single round trip.
func (s *Service) Lookup(ctx context.Context, rawCPF string) (models.Student, error) {
	cpf, err := domain.ParseCPF(rawCPF)
	if err != nil {
		return models.Student{}, err
	}

	v, err, _ := s.lookups.Do(cpf.String(), func() (any, error) {
		return s.store.FindByCPF(ctx, cpf)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncLookup("miss")
			return models.Student{}, pkgerrors.New(pkgerrors.CodeNotFound, "student not found")
		}
		s.metrics.IncLookup("error")
		s.logger.ErrorContext(ctx, "lookup failed", "cpf", cpf.String(), "error", err.Error())
		return models.Student{}, pkgerrors.Wrap(pkgerrors.CodeUnavailable, "could not reach the student registry", err)
	}
	s.metrics.IncLookup("hit")
	return v.(models.Student), nil
}

// RegisterInput is the registration form payload. Institution, level and
// validity are deliberately absent: the system injects them.
type RegisterInput struct {
	CPF       string
	Name      string
	RG        string
	BirthDate string
	Course    string
	PhotoURL  string
}

// Register creates a new identity record. Matricula and usage code are
// assigned here, once, and never change afterwards.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.Student, error) {
	cpf, err := domain.ParseCPF(in.CPF)
	if err != nil {
		return models.Student{}, err
	}
	if err := validateRegistration(in); err != nil {
		return models.Student{}, err
	}

	matricula, err := s.uniqueMatricula(ctx)
	if err != nil {
		return models.Student{}, pkgerrors.Wrap(pkgerrors.CodeUnavailable, "could not assign enrollment number", err)
	}
	usageCode, err := s.uniqueUsageCode(ctx)
	if err != nil {
		return models.Student{}, pkgerrors.Wrap(pkgerrors.CodeUnavailable, "could not assign usage code", err)
	}

	created, err := s.store.Create(ctx, models.Student{
		ID:          uuid.New(),
		CPF:         cpf,
		Name:        in.Name,
		RG:          in.RG,
		BirthDate:   in.BirthDate,
		Course:      in.Course,
		PhotoURL:    in.PhotoURL,
		Institution: models.Institution,
		Level:       models.Level,
		Matricula:   matricula,
		UsageCode:   usageCode,
		Validity:    models.Validity,
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return models.Student{}, pkgerrors.New(pkgerrors.CodeConflict, "a record for this cpf already exists")
		}
		s.logger.ErrorContext(ctx, "create failed", "cpf", cpf.String(), "error", err.Error())
		return models.Student{}, pkgerrors.Wrap(pkgerrors.CodeUnavailable, "could not save the registration", err)
	}

	s.metrics.IncStudentsCreated()
	s.logger.InfoContext(ctx, "student registered", "cpf", cpf.String(), "matricula", created.Matricula)
	return created, nil
}

// UpdateProfile applies a sparse patch to an existing record. The CPF,
// matricula and usage code cannot change through this path; the patch type
// cannot even express them.
func (s *Service) UpdateProfile(ctx context.Context, rawCPF string, patch models.StudentPatch) (models.Student, error) {
	cpf, err := domain.ParseCPF(rawCPF)
	if err != nil {
		return models.Student{}, err
	}
	if err := validatePatch(patch); err != nil {
		return models.Student{}, err
	}

	updated, err := s.store.Update(ctx, cpf, patch)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Student{}, pkgerrors.New(pkgerrors.CodeNotFound, "student not found")
		}
		s.logger.ErrorContext(ctx, "update failed", "cpf", cpf.String(), "error", err.Error())
		return models.Student{}, pkgerrors.Wrap(pkgerrors.CodeUnavailable, "could not save the profile", err)
	}

	s.metrics.IncStudentsUpdated()
	return updated, nil
}

// Delete removes a record for the explicit account-deletion action.
func (s *Service) Delete(ctx context.Context, rawCPF string) error {
	cpf, err := domain.ParseCPF(rawCPF)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, cpf); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "student not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeUnavailable, "could not delete the record", err)
	}
	s.metrics.IncStudentsDeleted()
	return nil
}

// ValidateByUsageCode resolves the 8-character code printed on the card and
// certificate back to its record.
func (s *Service) ValidateByUsageCode(ctx context.Context, code string) (models.Student, error) {
	if len(code) != usageCodeLength || !isUsageCode(code) {
		return models.Student{}, pkgerrors.New(pkgerrors.CodeInvalidInput, "usage code must be 8 characters A-Z or 0-9")
	}
	st, err := s.store.FindByUsageCode(ctx, code)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Student{}, pkgerrors.New(pkgerrors.CodeNotFound, "no record for this usage code")
		}
		return models.Student{}, pkgerrors.Wrap(pkgerrors.CodeUnavailable, "could not reach the student registry", err)
	}
	return st, nil
}

// UploadPhoto normalizes the image, best-effort deletes the previous blob,
// stores the new one and returns its public URL. The record write is a
// separate round trip by design; see the package docs for the accepted
// consistency gap.
func (s *Service) UploadPhoto(ctx context.Context, rawCPF string, data []byte, previousRef string) (string, error) {
	cpf, err := domain.ParseCPF(rawCPF)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeInvalidInput, "photo is required")
	}

	normalized, err := photo.Normalize(data)
	if err != nil {
		return "", err
	}

	if previousRef != "" {
		// Deletion failure is logged, never aborts the upload.
		if err := s.photos.Remove(ctx, previousRef); err != nil {
			s.logger.WarnContext(ctx, "old photo deletion failed", "ref", previousRef, "error", err.Error())
		}
	}

	url, err := s.photos.Put(ctx, photo.ObjectName(cpf.Digits()), normalized)
	if err != nil {
		s.logger.ErrorContext(ctx, "photo upload failed", "cpf", cpf.String(), "error", err.Error())
		return "", pkgerrors.Wrap(pkgerrors.CodeUnavailable, "could not store the photo", err)
	}

	s.metrics.IncPhotoUploads()
	return url, nil
}

func validateRegistration(in RegisterInput) error {
	switch {
	case in.Name == "":
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "name is required")
	case in.RG == "":
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "rg is required")
	case in.PhotoURL == "":
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "photo is required")
	case !models.ValidCourse(in.Course):
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "course is not in the catalog")
	}
	if _, err := time.Parse(birthDateLayout, in.BirthDate); err != nil {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "birth date must be YYYY-MM-DD")
	}
	return nil
}

func validatePatch(patch models.StudentPatch) error {
	if patch.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "no fields to update")
	}
	if patch.Name != nil && *patch.Name == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "name cannot be empty")
	}
	if patch.RG != nil && *patch.RG == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "rg cannot be empty")
	}
	if patch.PhotoURL != nil && *patch.PhotoURL == "" {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "photo cannot be cleared")
	}
	if patch.Course != nil && !models.ValidCourse(*patch.Course) {
		return pkgerrors.New(pkgerrors.CodeInvalidInput, "course is not in the catalog")
	}
	if patch.BirthDate != nil {
		if _, err := time.Parse(birthDateLayout, *patch.BirthDate); err != nil {
			return pkgerrors.New(pkgerrors.CodeInvalidInput, "birth date must be YYYY-MM-DD")
		}
	}
	return nil
}

func isUsageCode(code string) bool {
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
