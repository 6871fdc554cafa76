package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"carteirinha/internal/student/models"
	"carteirinha/pkg/domain"
	"carteirinha/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

const studentColumns = "id, cpf, name, rg, birth_date, course, photo_url, institution, level, matricula, usage_code, validity, created_at, updated_at"

// PostgresStudentStore persists identity records in PostgreSQL. Column names
// follow the snake_case table convention; mapping to the Go model happens
// here and nowhere else.
type PostgresStudentStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed student store.
func NewPostgres(db *sql.DB) *PostgresStudentStore {
	return &PostgresStudentStore{db: db}
}

func (s *PostgresStudentStore) FindByCPF(ctx context.Context, cpf domain.CPF) (models.Student, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE cpf = $1`, cpf.String())
	st, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Student{}, sentinel.ErrNotFound
		}
		return models.Student{}, fmt.Errorf("find student by cpf: %w", err)
	}
	return st, nil
}

func (s *PostgresStudentStore) FindByUsageCode(ctx context.Context, code string) (models.Student, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM students WHERE usage_code = $1`, code)
	st, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Student{}, sentinel.ErrNotFound
		}
		return models.Student{}, fmt.Errorf("find student by usage code: %w", err)
	}
	return st, nil
}

func (s *PostgresStudentStore) Create(ctx context.Context, student models.Student) (models.Student, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO students (id, cpf, name, rg, birth_date, course, photo_url, institution, level, matricula, usage_code, validity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+studentColumns,
		student.ID, student.CPF.String(), student.Name, student.RG, student.BirthDate,
		student.Course, student.PhotoURL, student.Institution, student.Level,
		student.Matricula, student.UsageCode, student.Validity,
	)
	created, err := scanStudent(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Student{}, sentinel.ErrConflict
		}
		return models.Student{}, fmt.Errorf("create student: %w", err)
	}
	return created, nil
}

func (s *PostgresStudentStore) Update(ctx context.Context, cpf domain.CPF, patch models.StudentPatch) (models.Student, error) {
	sets := []string{"updated_at = now()"}
	args := []any{cpf.String()}
	add := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("name", patch.Name)
	add("rg", patch.RG)
	add("birth_date", patch.BirthDate)
	add("course", patch.Course)
	add("photo_url", patch.PhotoURL)

	row := s.db.QueryRowContext(ctx,
		`UPDATE students SET `+strings.Join(sets, ", ")+` WHERE cpf = $1 RETURNING `+studentColumns,
		args...,
	)
	updated, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Student{}, sentinel.ErrNotFound
		}
		return models.Student{}, fmt.Errorf("update student: %w", err)
	}
	return updated, nil
}

func (s *PostgresStudentStore) Delete(ctx context.Context, cpf domain.CPF) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE cpf = $1`, cpf.String())
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete student rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStudentStore) MatriculaExists(ctx context.Context, matricula string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM students WHERE matricula = $1)`, matricula).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check matricula: %w", err)
	}
	return exists, nil
}

func (s *PostgresStudentStore) UsageCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM students WHERE usage_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check usage code: %w", err)
	}
	return exists, nil
}

func scanStudent(row *sql.Row) (models.Student, error) {
	var st models.Student
	var cpf string
	err := row.Scan(
		&st.ID, &cpf, &st.Name, &st.RG, &st.BirthDate, &st.Course, &st.PhotoURL,
		&st.Institution, &st.Level, &st.Matricula, &st.UsageCode, &st.Validity,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return models.Student{}, err
	}
	st.CPF = domain.CPF(cpf)
	return st, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
