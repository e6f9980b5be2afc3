package db

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store reads and writes the two backing documents. Each document is read
// wholesale and the students document is rewritten wholesale.
type Store interface {
	ReadCourses(ctx context.Context) ([]byte, error)
	ReadStudents(ctx context.Context) ([]byte, error)
	WriteStudents(ctx context.Context, data []byte) error
}

// FileStore keeps the documents as JSON files on disk.
type FileStore struct {
	CoursesPath  string
	StudentsPath string
}

// NewFileStore creates a FileStore for the given document paths
func NewFileStore(coursesPath, studentsPath string) *FileStore {
	return &FileStore{
		CoursesPath:  coursesPath,
		StudentsPath: studentsPath,
	}
}

func (s *FileStore) ReadCourses(ctx context.Context) ([]byte, error) {
	return readFile(ctx, s.CoursesPath)
}

func (s *FileStore) ReadStudents(ctx context.Context) ([]byte, error) {
	return readFile(ctx, s.StudentsPath)
}

// WriteStudents replaces the students file. The data goes to a temp file in
// the same directory which is then renamed over the target.
func (s *FileStore) WriteStudents(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.StudentsPath), ".students-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.StudentsPath); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrDocumentMissing)
	}
	return data, err
}
