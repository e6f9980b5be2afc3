package db

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"collegedata-server-go/models"
)

// Catalog holds the students and courses collections in memory and writes
// the students collection back to its Store on every mutation.
//
// Reads run concurrently; mutations hold the write lock until the students
// document has been written, so two writers never interleave.
type Catalog struct {
	mu       sync.RWMutex
	store    Store
	students []models.Student
	courses  []models.Course
	log      zerolog.Logger
}

// Load reads the courses document and then the students document from store.
// A courses failure stops the load before students are read.
func Load(ctx context.Context, store Store, lgr zerolog.Logger) (*Catalog, error) {
	var courses []models.Course
	if err := readDocument(ctx, store.ReadCourses, &courses); err != nil {
		return nil, &LoadError{Source: "courses", Err: err}
	}

	var students []models.Student
	if err := readDocument(ctx, store.ReadStudents, &students); err != nil {
		return nil, &LoadError{Source: "students", Err: err}
	}

	lgr.Info().Int("students", len(students)).Int("courses", len(courses)).Msg("Catalog loaded")
	return &Catalog{
		store:    store,
		students: students,
		courses:  courses,
		log:      lgr,
	}, nil
}

func readDocument(ctx context.Context, read func(context.Context) ([]byte, error), v any) error {
	data, err := read(ctx)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// GetAllStudents returns every student in collection order.
func (c *Catalog) GetAllStudents() ([]models.Student, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.students) == 0 {
		return nil, ErrEmptyResult
	}
	return cloneStudents(c.students), nil
}

// GetCourses returns every course in collection order.
func (c *Catalog) GetCourses() ([]models.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.courses) == 0 {
		return nil, ErrEmptyResult
	}
	out := make([]models.Course, len(c.courses))
	copy(out, c.courses)
	return out, nil
}

// GetStudentByNum returns the first student whose number equals num once both
// are read as integers, so 5 and "5" find the same record.
func (c *Catalog) GetStudentByNum(num any) (models.Student, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexOfStudent(num)
	if i < 0 {
		return models.Student{}, ErrNotFound
	}
	return c.students[i].Clone(), nil
}

// GetCourseByID returns the course whose id strictly equals id: a number
// matches a numeric courseId of the same value and a string matches a string
// courseId, but "3" never finds course 3.
func (c *Catalog) GetCourseByID(id any) (models.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, course := range c.courses {
		if models.SameID(course.CourseID, id) {
			return course, nil
		}
	}
	return models.Course{}, ErrNotFound
}

// CourseKey maps the text of a course id, as it arrives in a path or a query
// string, to the id as stored. Text matching no course is returned as is.
func (c *Catalog) CourseKey(text string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.courseKeyLocked(text)
}

func (c *Catalog) courseKeyLocked(text string) any {
	for _, course := range c.courses {
		if models.MatchesText(course.CourseID, text) {
			return course.CourseID
		}
	}
	return text
}

// GetStudentsByCourse returns the students whose course strictly equals
// course, in collection order.
func (c *Catalog) GetStudentsByCourse(course any) ([]models.Student, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []models.Student
	for _, s := range c.students {
		if models.SameID(s.Course, course) {
			out = append(out, s.Clone())
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyResult
	}
	return out, nil
}

// AddStudent appends a student built from fields and persists the students
// collection. The student number is the collection length plus one. TA is
// true only when fields["TA"] is the string "on".
//
// When the write fails the append is undone and a *PersistenceError is returned.
func (c *Catalog) AddStudent(ctx context.Context, fields models.StudentFields) (models.Student, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := models.NewStudent()
	s.Apply(c.withCourseKey(fields))
	s.SetTA(models.IsChecked(fields["TA"]))
	s.SetStudentNum(len(c.students) + 1)

	c.students = append(c.students, s)
	if err := c.persistLocked(ctx); err != nil {
		c.students = c.students[:len(c.students)-1]
		c.log.Error().Err(err).Int("studentNum", s.StudentNum).Msg("Failed to add student")
		return models.Student{}, err
	}

	c.log.Info().Int("studentNum", s.StudentNum).Interface("course", s.Course).Msg("Added student")
	return s.Clone(), nil
}

// UpdateStudent merges fields over the student named by fields["studentNum"]
// and persists the students collection. Fields not supplied keep their value,
// except TA which is recomputed from fields["TA"] and so drops to false when
// omitted.
//
// An unknown student returns ErrNotFound without writing. When the write
// fails the previous record is restored and a *PersistenceError is returned.
func (c *Catalog) UpdateStudent(ctx context.Context, fields models.StudentFields) (models.Student, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOfStudent(fields["studentNum"])
	if i < 0 {
		return models.Student{}, ErrNotFound
	}

	prev := c.students[i]
	updated := prev.Clone()
	updated.Apply(c.withCourseKey(fields))
	updated.SetTA(models.IsChecked(fields["TA"]))

	c.students[i] = updated
	if err := c.persistLocked(ctx); err != nil {
		c.students[i] = prev
		c.log.Error().Err(err).Int("studentNum", prev.StudentNum).Msg("Failed to update student")
		return models.Student{}, err
	}

	c.log.Info().Int("studentNum", updated.StudentNum).Msg("Updated student")
	return updated.Clone(), nil
}

// withCourseKey replaces a textual course with the matching stored course id,
// so a form posting "2" enrolls the student in course 2.
func (c *Catalog) withCourseKey(fields models.StudentFields) models.StudentFields {
	text, ok := fields["course"].(string)
	if !ok {
		return fields
	}
	out := make(models.StudentFields, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	out["course"] = c.courseKeyLocked(text)
	return out
}

func (c *Catalog) persistLocked(ctx context.Context) error {
	data, err := json.MarshalIndent(c.students, "", "  ")
	if err != nil {
		return &PersistenceError{Err: err}
	}
	if err := c.store.WriteStudents(ctx, data); err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

func (c *Catalog) indexOfStudent(num any) int {
	want, ok := models.LooseInt(num)
	if !ok {
		return -1
	}
	for i, s := range c.students {
		if s.StudentNum == want {
			return i
		}
	}
	return -1
}

func (c *Catalog) snapshotStudents() []models.Student {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneStudents(c.students)
}

func cloneStudents(in []models.Student) []models.Student {
	out := make([]models.Student, len(in))
	for i, s := range in {
		out[i] = s.Clone()
	}
	return out
}
