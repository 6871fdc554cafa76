// Package store persists identity records. Implementations return sentinel
// errors for infrastructure facts; translation into coded domain errors is the
// service's job.
package store

import (
	"context"

	"carteirinha/internal/student/models"
	"carteirinha/pkg/domain"
)

// StudentStore is the persistence contract of the gateway. Lookup misses are
// reported as sentinel.ErrNotFound; unique-constraint rejections as
// sentinel.ErrConflict.
type StudentStore interface {
	// FindByCPF returns the record keyed by cpf.
	FindByCPF(ctx context.Context, cpf domain.CPF) (models.Student, error)
	// FindByUsageCode powers the validation and certificate lookups.
	FindByUsageCode(ctx context.Context, code string) (models.Student, error)
	// Create inserts a new record and returns it as persisted, including
	// store-assigned timestamps.
	Create(ctx context.Context, student models.Student) (models.Student, error)
	// Update applies only the fields present in the patch; absent fields are
	// left untouched. The key fields can never change through this path.
	Update(ctx context.Context, cpf domain.CPF, patch models.StudentPatch) (models.Student, error)
	// Delete removes the record for the explicit account-deletion action.
	Delete(ctx context.Context, cpf domain.CPF) error
	// MatriculaExists probes enrollment-number collisions for the generator.
	MatriculaExists(ctx context.Context, matricula string) (bool, error)
	// UsageCodeExists probes usage-code collisions for the generator.
	UsageCodeExists(ctx context.Context, code string) (bool, error)
}
