package handlers

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"collegedata-server-go/db"
	"collegedata-server-go/models"
)

const (
	noResults       = "no results"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// PageHandler renders the HTML pages of the site
type PageHandler struct {
	Catalog *db.Catalog
	log     zerolog.Logger
}

// NewPageHandler creates a new PageHandler
func NewPageHandler(catalog *db.Catalog, lgr zerolog.Logger) *PageHandler {
	return &PageHandler{
		Catalog: catalog,
		log:     lgr,
	}
}

func (h *PageHandler) render(c *gin.Context, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data[activeRouteKey] = c.GetString(activeRouteKey)
	c.HTML(http.StatusOK, name, data)
}

// Home handles GET /
func (h *PageHandler) Home(c *gin.Context) {
	h.render(c, "home.html", gin.H{"title": "Home Page"})
}

// About handles GET /about
func (h *PageHandler) About(c *gin.Context) {
	h.render(c, "about.html", nil)
}

// HTMLDemo handles GET /htmlDemo
func (h *PageHandler) HTMLDemo(c *gin.Context) {
	h.render(c, "htmlDemo.html", nil)
}

// AddStudentForm handles GET /students/add
func (h *PageHandler) AddStudentForm(c *gin.Context) {
	courses, _ := h.Catalog.GetCourses()
	h.render(c, "addStudent.html", gin.H{"courses": courses})
}

// Students handles GET /students, optionally filtered by ?course=
func (h *PageHandler) Students(c *gin.Context) {
	var (
		students []models.Student
		err      error
	)
	if course := c.Query("course"); course != "" {
		students, err = h.Catalog.GetStudentsByCourse(h.Catalog.CourseKey(course))
	} else {
		students, err = h.Catalog.GetAllStudents()
	}
	if err != nil {
		h.render(c, "students.html", gin.H{"message": noResults})
		return
	}
	h.render(c, "students.html", gin.H{"students": students})
}

// Courses handles GET /courses
func (h *PageHandler) Courses(c *gin.Context) {
	courses, err := h.Catalog.GetCourses()
	if err != nil {
		h.render(c, "courses.html", gin.H{"message": noResults})
		return
	}
	h.render(c, "courses.html", gin.H{"courses": courses})
}

// Course handles GET /course/:id
func (h *PageHandler) Course(c *gin.Context) {
	course, err := h.Catalog.GetCourseByID(h.Catalog.CourseKey(c.Param("id")))
	if err != nil {
		h.render(c, "course.html", gin.H{"message": noResults})
		return
	}
	h.render(c, "course.html", gin.H{"course": course})
}

// Student handles GET /student/:num
func (h *PageHandler) Student(c *gin.Context) {
	student, err := h.Catalog.GetStudentByNum(c.Param("num"))
	if err != nil {
		h.render(c, "student.html", gin.H{"message": "Student not found"})
		return
	}
	courses, err := h.Catalog.GetCourses()
	if err != nil {
		h.render(c, "student.html", gin.H{"message": "Student not found"})
		return
	}
	h.render(c, "student.html", gin.H{"student": student, "courses": courses})
}

// AddStudent handles POST /students/add
func (h *PageHandler) AddStudent(c *gin.Context) {
	fields, err := formFields(c)
	if err == nil {
		_, err = h.Catalog.AddStudent(c.Request.Context(), fields)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to add student")
		c.String(http.StatusInternalServerError, "Failed to add student")
		return
	}
	c.Redirect(http.StatusFound, "/students")
}

// UpdateStudent handles POST /student/update
func (h *PageHandler) UpdateStudent(c *gin.Context) {
	fields, err := formFields(c)
	if err == nil {
		_, err = h.Catalog.UpdateStudent(c.Request.Context(), fields)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to update student")
		c.String(http.StatusInternalServerError, "Failed to update student")
		return
	}
	c.Redirect(http.StatusFound, "/students")
}

// ExportStudents handles GET /students/export
func (h *PageHandler) ExportStudents(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.Catalog.ExportStudents(&buf); err != nil {
		h.log.Error().Err(err).Msg("Failed to export students")
		c.String(http.StatusInternalServerError, "Failed to export students")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="students.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ImportStudents handles POST /students/import
func (h *PageHandler) ImportStudents(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.log.Warn().Err(err).Msg("Error getting form file")
		c.String(http.StatusBadRequest, "Missing workbook upload")
		return
	}
	defer file.Close()

	h.log.Info().Str("filename", header.Filename).Msg("Received workbook upload")
	imported, err := h.Catalog.ImportStudents(c.Request.Context(), file)
	if err != nil {
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("Failed to import students")
		c.String(http.StatusInternalServerError, "Failed to import students")
		return
	}
	h.log.Info().Int("imported", imported).Msg("Import finished")
	c.Redirect(http.StatusFound, "/students")
}

// NotFound handles every unmatched route
func NotFound(c *gin.Context) {
	c.String(http.StatusNotFound, "404 - Page Not Found")
}
