package db

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collegedata-server-go/models"
)

const testCourses = `[
  {"courseId": 1, "courseCode": "CS101", "courseDescription": "Intro"},
  {"courseId": 2, "courseCode": "MATH200", "courseDescription": "Calculus", "credits": 4}
]`

const testStudents = `[
  {"studentNum": 1, "firstName": "Ada", "lastName": "Lovelace", "course": 1, "TA": true, "nickname": "ada"},
  {"studentNum": 2, "firstName": "Alan", "lastName": "Turing", "course": 1, "TA": false},
  {"studentNum": 5, "firstName": "Emmy", "lastName": "Noether", "course": 2, "TA": true}
]`

// memStore is an in-memory Store that records calls and can be told to fail.
type memStore struct {
	mu          sync.Mutex
	courses     []byte
	students    []byte
	coursesErr  error
	studentsErr error
	writeErr    error
	calls       []string
	writes      int
}

func (s *memStore) ReadCourses(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "courses")
	return s.courses, s.coursesErr
}

func (s *memStore) ReadStudents(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "students")
	return s.students, s.studentsErr
}

func (s *memStore) WriteStudents(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "write")
	if s.writeErr != nil {
		return s.writeErr
	}
	s.writes++
	s.students = append([]byte(nil), data...)
	return nil
}

func (s *memStore) storedStudents(t *testing.T) []models.Student {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Student
	require.NoError(t, json.Unmarshal(s.students, &out))
	return out
}

func newMemStore() *memStore {
	return &memStore{courses: []byte(testCourses), students: []byte(testStudents)}
}

func loadCatalog(t *testing.T, store Store) *Catalog {
	t.Helper()
	c, err := Load(context.Background(), store, zerolog.Nop())
	require.NoError(t, err)
	return c
}

// =============================================================================
// Load
// =============================================================================

func TestLoad_ReadsDocumentsInOrder(t *testing.T) {
	store := newMemStore()
	c := loadCatalog(t, store)

	assert.Equal(t, []string{"courses", "students"}, store.calls)

	students, err := c.GetAllStudents()
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, []int{1, 2, 5}, []int{students[0].StudentNum, students[1].StudentNum, students[2].StudentNum})
	assert.Equal(t, "Ada", students[0].FirstName)
	assert.True(t, students[0].TA)
	assert.Equal(t, "ada", students[0].Extra["nickname"])

	courses, err := c.GetCourses()
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "CS101", courses[0].CourseCode)
	assert.Equal(t, "MATH200", courses[1].CourseCode)
	assert.Equal(t, json.Number("4"), courses[1].Extra["credits"])
}

func TestLoad_CoursesFailureSkipsStudents(t *testing.T) {
	store := newMemStore()
	store.coursesErr = errors.New("disk gone")

	_, err := Load(context.Background(), store, zerolog.Nop())

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "courses", loadErr.Source)
	assert.Equal(t, []string{"courses"}, store.calls)
}

func TestLoad_StudentsFailure(t *testing.T) {
	store := newMemStore()
	store.studentsErr = errors.New("disk gone")

	_, err := Load(context.Background(), store, zerolog.Nop())

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "students", loadErr.Source)
}

func TestLoad_ParseFailure(t *testing.T) {
	store := newMemStore()
	store.students = []byte(`[{"studentNum": 1,`)

	_, err := Load(context.Background(), store, zerolog.Nop())

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "students", loadErr.Source)
}

func TestLoad_FromFiles(t *testing.T) {
	dir := t.TempDir()
	coursesPath := filepath.Join(dir, "courses.json")
	studentsPath := filepath.Join(dir, "students.json")
	require.NoError(t, os.WriteFile(coursesPath, []byte(testCourses), 0o644))
	require.NoError(t, os.WriteFile(studentsPath, []byte(testStudents), 0o644))

	c := loadCatalog(t, NewFileStore(coursesPath, studentsPath))
	students, err := c.GetAllStudents()
	require.NoError(t, err)
	assert.Len(t, students, 3)
}

func TestLoad_MissingCoursesFile(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "courses.json"), filepath.Join(dir, "students.json"))

	_, err := Load(context.Background(), store, zerolog.Nop())

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "courses", loadErr.Source)
	assert.ErrorIs(t, err, ErrDocumentMissing)
}

// =============================================================================
// Reads
// =============================================================================

func TestGetAll_EmptyCollections(t *testing.T) {
	store := &memStore{courses: []byte(`[]`), students: []byte(`[]`)}
	c := loadCatalog(t, store)

	_, err := c.GetAllStudents()
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = c.GetCourses()
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestGetAllStudents_ReturnsCopy(t *testing.T) {
	c := loadCatalog(t, newMemStore())

	students, err := c.GetAllStudents()
	require.NoError(t, err)
	students[0].FirstName = "changed"
	students[0].Extra["nickname"] = "changed"

	again, err := c.GetAllStudents()
	require.NoError(t, err)
	assert.Equal(t, "Ada", again[0].FirstName)
	assert.Equal(t, "ada", again[0].Extra["nickname"])
}

func TestGetStudentByNum_LooseMatch(t *testing.T) {
	c := loadCatalog(t, newMemStore())

	for _, num := range []any{5, "5", 5.0, int64(5), json.Number("5"), " 5 "} {
		s, err := c.GetStudentByNum(num)
		require.NoError(t, err, "num %#v", num)
		assert.Equal(t, "Emmy", s.FirstName)
	}
}

func TestGetStudentByNum_NotFound(t *testing.T) {
	c := loadCatalog(t, newMemStore())

	for _, num := range []any{3, "3", "five", 5.5, nil, true} {
		_, err := c.GetStudentByNum(num)
		assert.ErrorIs(t, err, ErrNotFound, "num %#v", num)
	}
}

func TestGetCourseByID_StrictMatch(t *testing.T) {
	c := loadCatalog(t, newMemStore())

	for _, id := range []any{2, int64(2), 2.0, json.Number("2")} {
		course, err := c.GetCourseByID(id)
		require.NoError(t, err, "id %#v", id)
		assert.Equal(t, "MATH200", course.CourseCode)
	}

	for _, id := range []any{"2", " 2", 9, nil, true} {
		_, err := c.GetCourseByID(id)
		assert.ErrorIs(t, err, ErrNotFound, "id %#v", id)
	}
}

const textIDCourses = `[
  {"courseId": "CS101", "courseCode": "CS101"},
  {"courseId": "MATH200", "courseCode": "MATH200"},
  {"courseId": "3", "courseCode": "TXT3"},
  {"courseId": 4, "courseCode": "NUM4"}
]`

const textIDStudents = `[
  {"studentNum": 1, "course": "CS101"},
  {"studentNum": 2, "firstName": null, "TA": "yes", "course": "MATH200"},
  {"studentNum": 3, "course": "CS101", "nickname": "three"}
]`

func TestGetCourseByID_TypeMustMatch(t *testing.T) {
	c := loadCatalog(t, &memStore{courses: []byte(textIDCourses), students: []byte(textIDStudents)})

	course, err := c.GetCourseByID("3")
	require.NoError(t, err)
	assert.Equal(t, "TXT3", course.CourseCode)

	course, err = c.GetCourseByID(4)
	require.NoError(t, err)
	assert.Equal(t, "NUM4", course.CourseCode)

	for _, id := range []any{3, json.Number("3"), "4", 0, ""} {
		_, err := c.GetCourseByID(id)
		assert.ErrorIs(t, err, ErrNotFound, "id %#v", id)
	}
}

func TestGetStudentsByCourse(t *testing.T) {
	c := loadCatalog(t, newMemStore())

	students, err := c.GetStudentsByCourse(1)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ada", students[0].FirstName)
	assert.Equal(t, "Alan", students[1].FirstName)

	_, err = c.GetStudentsByCourse(3)
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = c.GetStudentsByCourse("1")
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestGetStudentsByCourse_TextIDs(t *testing.T) {
	c := loadCatalog(t, &memStore{courses: []byte(textIDCourses), students: []byte(textIDStudents)})

	students, err := c.GetStudentsByCourse("CS101")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, 1, students[0].StudentNum)
	assert.Equal(t, 3, students[1].StudentNum)

	_, err = c.GetStudentsByCourse(0)
	assert.ErrorIs(t, err, ErrEmptyResult)
	_, err = c.GetStudentsByCourse("cs101")
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestCourseKey(t *testing.T) {
	c := loadCatalog(t, &memStore{courses: []byte(textIDCourses), students: []byte(textIDStudents)})

	assert.Equal(t, "CS101", c.CourseKey("CS101"))
	assert.Equal(t, "3", c.CourseKey("3"))
	assert.Equal(t, json.Number("4"), c.CourseKey("4"))
	assert.Equal(t, "9", c.CourseKey("9"))
}

// =============================================================================
// AddStudent
// =============================================================================

func TestAddStudent_TACoercion(t *testing.T) {
	tests := []struct {
		name   string
		ta     any
		omit   bool
		wantTA bool
	}{
		{name: "omitted", omit: true, wantTA: false},
		{name: "checkbox on", ta: "on", wantTA: true},
		{name: "bool true", ta: true, wantTA: false},
		{name: "string true", ta: "true", wantTA: false},
		{name: "ON uppercase", ta: "ON", wantTA: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := loadCatalog(t, newMemStore())
			fields := models.StudentFields{"firstName": "Grace"}
			if !tt.omit {
				fields["TA"] = tt.ta
			}

			s, err := c.AddStudent(context.Background(), fields)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTA, s.TA)

			stored, err := c.GetStudentByNum(s.StudentNum)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTA, stored.TA)
		})
	}
}

func TestAddStudent_NumberIsLengthPlusOne(t *testing.T) {
	store := newMemStore()
	c := loadCatalog(t, store)

	// Existing numbers are 1, 2 and 5; the next number is still 4.
	s, err := c.AddStudent(context.Background(), models.StudentFields{
		"firstName":  "Grace",
		"studentNum": 99,
		"course":     "2",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, s.StudentNum)
	assert.Equal(t, json.Number("2"), s.Course)

	// A course matching no stored id is kept as given.
	s, err = c.AddStudent(context.Background(), models.StudentFields{"course": "BIO100"})
	require.NoError(t, err)
	assert.Equal(t, "BIO100", s.Course)
}

func TestAddStudent_SequentialAddsPersisted(t *testing.T) {
	store := newMemStore()
	c := loadCatalog(t, store)

	first, err := c.AddStudent(context.Background(), models.StudentFields{"firstName": "Grace"})
	require.NoError(t, err)
	second, err := c.AddStudent(context.Background(), models.StudentFields{"firstName": "Barbara", "pronouns": "she/her"})
	require.NoError(t, err)

	assert.Equal(t, first.StudentNum+1, second.StudentNum)
	assert.Equal(t, 2, store.writes)

	stored := store.storedStudents(t)
	require.Len(t, stored, 5)
	assert.Equal(t, "Grace", stored[3].FirstName)
	assert.Equal(t, 4, stored[3].StudentNum)
	assert.Equal(t, "Barbara", stored[4].FirstName)
	assert.Equal(t, 5, stored[4].StudentNum)
	assert.Equal(t, "she/her", stored[4].Extra["pronouns"])
	// Records loaded from disk keep their free-form fields.
	assert.Equal(t, "ada", stored[0].Extra["nickname"])
}

func TestAddStudent_PersistenceFailureRollsBack(t *testing.T) {
	store := newMemStore()
	c := loadCatalog(t, store)
	store.writeErr = errors.New("read-only file system")

	_, err := c.AddStudent(context.Background(), models.StudentFields{"firstName": "Grace"})

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.ErrorIs(t, err, store.writeErr)

	students, err := c.GetAllStudents()
	require.NoError(t, err)
	assert.Len(t, students, 3)
}

// =============================================================================
// UpdateStudent
// =============================================================================

func TestUpdateStudent_MergesFields(t *testing.T) {
	store := newMemStore()
	c := loadCatalog(t, store)

	updated, err := c.UpdateStudent(context.Background(), models.StudentFields{
		"studentNum": "1",
		"lastName":   "King",
		"course":     "2",
		"TA":         "on",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, updated.StudentNum)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "King", updated.LastName)
	assert.Equal(t, json.Number("2"), updated.Course)
	assert.True(t, updated.TA)
	assert.Equal(t, "ada", updated.Extra["nickname"])

	stored := store.storedStudents(t)
	assert.Equal(t, "King", stored[0].LastName)
	assert.Equal(t, 1, store.writes)
}

func TestUpdateStudent_OmittedTAResetsToFalse(t *testing.T) {
	c := loadCatalog(t, newMemStore())

	updated, err := c.UpdateStudent(context.Background(), models.StudentFields{
		"studentNum": 5,
		"status":     "Part Time",
	})
	require.NoError(t, err)
	assert.False(t, updated.TA)

	stored, err := c.GetStudentByNum(5)
	require.NoError(t, err)
	assert.False(t, stored.TA)
	assert.Equal(t, "Part Time", stored.Status)
}

func TestWrites_KeepStoredRecordsUnchanged(t *testing.T) {
	store := &memStore{courses: []byte(textIDCourses), students: []byte(textIDStudents)}
	c := loadCatalog(t, store)

	added, err := c.AddStudent(context.Background(), models.StudentFields{"firstName": "Grace", "course": "MATH200"})
	require.NoError(t, err)
	assert.Equal(t, 4, added.StudentNum)

	var before, after []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(textIDStudents), &before))
	require.NoError(t, json.Unmarshal(store.students, &after))
	require.Len(t, after, 4)
	for i := range before {
		assert.JSONEq(t, string(before[i]), string(after[i]), "record %d", i)
	}
	assert.JSONEq(t, `{"studentNum":4,"firstName":"Grace","course":"MATH200","TA":false}`, string(after[3]))

	reloaded := loadCatalog(t, store)
	students, err := reloaded.GetStudentsByCourse("MATH200")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, 2, students[0].StudentNum)
	assert.Equal(t, 4, students[1].StudentNum)

	_, err = reloaded.UpdateStudent(context.Background(), models.StudentFields{"studentNum": 3, "lastName": "Noether"})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(store.students, &after))
	assert.JSONEq(t, `{"studentNum":3,"course":"CS101","nickname":"three","lastName":"Noether","TA":false}`, string(after[2]))
	assert.JSONEq(t, string(before[1]), string(after[1]))
}

func TestUpdateStudent_UnknownStudent(t *testing.T) {
	store := newMemStore()
	c := loadCatalog(t, store)

	_, err := c.UpdateStudent(context.Background(), models.StudentFields{"studentNum": 42, "firstName": "Nobody"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.UpdateStudent(context.Background(), models.StudentFields{"firstName": "Nobody"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 0, store.writes)
	assert.NotContains(t, store.calls, "write")
}

func TestUpdateStudent_PersistenceFailureRestores(t *testing.T) {
	store := newMemStore()
	c := loadCatalog(t, store)
	store.writeErr = errors.New("disk full")

	_, err := c.UpdateStudent(context.Background(), models.StudentFields{"studentNum": 1, "firstName": "Changed"})

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)

	s, err := c.GetStudentByNum(1)
	require.NoError(t, err)
	assert.Equal(t, "Ada", s.FirstName)
	assert.True(t, s.TA)
}

func TestConcurrentAddsGetDistinctNumbers(t *testing.T) {
	store := newMemStore()
	c := loadCatalog(t, store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.AddStudent(context.Background(), models.StudentFields{"firstName": "Student"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored := store.storedStudents(t)
	require.Len(t, stored, 23)
	seen := make(map[int]bool)
	for _, s := range stored[3:] {
		assert.False(t, seen[s.StudentNum], "duplicate number %d", s.StudentNum)
		seen[s.StudentNum] = true
	}
}
