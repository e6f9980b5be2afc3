package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"collegedata-server-go/db"
	"collegedata-server-go/models"
)

// APIHandler serves the catalog as JSON
type APIHandler struct {
	Catalog *db.Catalog
	log     zerolog.Logger
}

// NewAPIHandler creates a new APIHandler
func NewAPIHandler(catalog *db.Catalog, lgr zerolog.Logger) *APIHandler {
	return &APIHandler{
		Catalog: catalog,
		log:     lgr,
	}
}

// --- Course Handlers ---

// GetCourses handles GET /api/courses
func (h *APIHandler) GetCourses(c *gin.Context) {
	courses, err := h.Catalog.GetCourses()
	if errors.Is(err, db.ErrEmptyResult) {
		// Return empty list instead of null for JSON consistency
		c.JSON(http.StatusOK, []models.Course{})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Error in GetCourses handler")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve courses"})
		return
	}
	c.JSON(http.StatusOK, courses)
}

// GetCourseByID handles GET /api/courses/:id
func (h *APIHandler) GetCourseByID(c *gin.Context) {
	course, err := h.Catalog.GetCourseByID(h.Catalog.CourseKey(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}
	c.JSON(http.StatusOK, course)
}

// --- Student Handlers ---

// GetStudents handles GET /api/students and GET /api/students?course=
func (h *APIHandler) GetStudents(c *gin.Context) {
	var (
		students []models.Student
		err      error
	)
	if course := c.Query("course"); course != "" {
		students, err = h.Catalog.GetStudentsByCourse(h.Catalog.CourseKey(course))
	} else {
		students, err = h.Catalog.GetAllStudents()
	}
	if errors.Is(err, db.ErrEmptyResult) {
		c.JSON(http.StatusOK, []models.Student{})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Error in GetStudents handler")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve students"})
		return
	}
	c.JSON(http.StatusOK, students)
}

// GetStudentByNum handles GET /api/students/:num
func (h *APIHandler) GetStudentByNum(c *gin.Context) {
	student, err := h.Catalog.GetStudentByNum(c.Param("num"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}
	c.JSON(http.StatusOK, student)
}

// AddStudent handles POST /api/students
func (h *APIHandler) AddStudent(c *gin.Context) {
	var fields models.StudentFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	student, err := h.Catalog.AddStudent(c.Request.Context(), fields)
	if err != nil {
		h.log.Error().Err(err).Msg("Error in AddStudent handler")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add student"})
		return
	}
	c.JSON(http.StatusCreated, student)
}

// UpdateStudent handles PUT /api/students/:num
func (h *APIHandler) UpdateStudent(c *gin.Context) {
	var fields models.StudentFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if fields == nil {
		fields = make(models.StudentFields)
	}
	fields["studentNum"] = c.Param("num")

	student, err := h.Catalog.UpdateStudent(c.Request.Context(), fields)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Student not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("studentNum", c.Param("num")).Msg("Error in UpdateStudent handler")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update student"})
		return
	}
	c.JSON(http.StatusOK, student)
}

// --- Ping Handler ---

// PingHandler handles GET /api/ping
func PingHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Pong!"})
}
