package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"collegedata-server-go/db"
	"collegedata-server-go/logger"
	"collegedata-server-go/views"
)

// NewRouter builds the gin engine serving the HTML site and the JSON API.
func NewRouter(catalog *db.Catalog, lgr zerolog.Logger) (*gin.Engine, error) {
	tmpl, err := views.Templates(TemplateFuncs())
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	router := gin.New()
	router.Use(logger.Middleware(lgr), gin.Recovery(), ActiveRoute())
	router.SetHTMLTemplate(tmpl)
	router.StaticFS("/css", views.CSS())

	pages := NewPageHandler(catalog, lgr)
	router.GET("/", pages.Home)
	router.GET("/about", pages.About)
	router.GET("/htmlDemo", pages.HTMLDemo)

	router.GET("/students", pages.Students)
	router.GET("/students/add", pages.AddStudentForm)
	router.POST("/students/add", pages.AddStudent)
	router.GET("/students/export", pages.ExportStudents)
	router.POST("/students/import", pages.ImportStudents)
	router.GET("/student/:num", pages.Student)
	router.POST("/student/update", pages.UpdateStudent)

	router.GET("/courses", pages.Courses)
	router.GET("/course/:id", pages.Course)

	apiHandler := NewAPIHandler(catalog, lgr)
	api := router.Group("/api")
	{
		api.GET("/students", apiHandler.GetStudents)
		api.POST("/students", apiHandler.AddStudent)
		api.GET("/students/:num", apiHandler.GetStudentByNum)
		api.PUT("/students/:num", apiHandler.UpdateStudent)

		api.GET("/courses", apiHandler.GetCourses)
		api.GET("/courses/:id", apiHandler.GetCourseByID)

		api.GET("/ping", PingHandler)
	}

	router.NoRoute(NotFound)
	return router, nil
}
