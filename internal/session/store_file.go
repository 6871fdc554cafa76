package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"carteirinha/internal/student/models"
	"carteirinha/pkg/platform/sentinel"
)

// FileStore keeps the session in a single JSON file, the on-disk analog of the
// original client's local storage slot.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore builds a file-backed session store at path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Load(ctx context.Context) (models.Student, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.Student{}, sentinel.ErrNotFound
		}
		return models.Student{}, fmt.Errorf("read session file: %w", err)
	}
	var st models.Student
	if err := json.Unmarshal(data, &st); err != nil {
		// A corrupt cache is treated as a miss: drop it and force a fresh
		// authentication instead of failing startup.
		s.logger.WarnContext(ctx, "corrupt session cache dropped", "path", s.path, "error", err.Error())
		_ = os.Remove(s.path)
		return models.Student{}, sentinel.ErrNotFound
	}
	return st, nil
}

func (s *FileStore) Save(_ context.Context, student models.Student) error {
	data, err := json.Marshal(student)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear(_ context.Context) error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear session file: %w", err)
	}
	return nil
}
