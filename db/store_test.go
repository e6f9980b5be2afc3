package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collegedata-server-go/models"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "courses.json"), filepath.Join(dir, "students.json"))
	require.NoError(t, os.WriteFile(store.CoursesPath, []byte(testCourses), 0o644))
	require.NoError(t, os.WriteFile(store.StudentsPath, []byte(testStudents), 0o644))
	return store
}

func TestFileStore_ReadMissing(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "nope.json"), filepath.Join(dir, "nope.json"))

	_, err := store.ReadCourses(context.Background())
	assert.ErrorIs(t, err, ErrDocumentMissing)
	_, err = store.ReadStudents(context.Background())
	assert.ErrorIs(t, err, ErrDocumentMissing)
}

func TestFileStore_WriteOverwrites(t *testing.T) {
	store := newTestFileStore(t)

	require.NoError(t, store.WriteStudents(context.Background(), []byte(`[]`)))

	data, err := os.ReadFile(store.StudentsPath)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	entries, err := os.ReadDir(filepath.Dir(store.StudentsPath))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must not be left behind")
}

func TestFileStore_WriteToMissingDirectory(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "courses.json"), filepath.Join(dir, "missing", "students.json"))

	err := store.WriteStudents(context.Background(), []byte(`[]`))
	assert.Error(t, err)
}

func TestFileStore_CanceledContext(t *testing.T) {
	store := newTestFileStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ReadCourses(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.WriteStudents(ctx, []byte(`[]`)), context.Canceled)
}

func TestCatalog_AddStudentRewritesFile(t *testing.T) {
	store := newTestFileStore(t)
	c, err := Load(context.Background(), store, zerolog.Nop())
	require.NoError(t, err)

	_, err = c.AddStudent(context.Background(), models.StudentFields{"firstName": "Grace", "TA": "on"})
	require.NoError(t, err)

	reloaded, err := Load(context.Background(), store, zerolog.Nop())
	require.NoError(t, err)
	students, err := reloaded.GetAllStudents()
	require.NoError(t, err)
	require.Len(t, students, 4)
	assert.Equal(t, "Grace", students[3].FirstName)
	assert.True(t, students[3].TA)

	data, err := os.ReadFile(store.StudentsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  {\n    \"TA\": true", "document is indented with two spaces")
}
