package handlers

import (
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"collegedata-server-go/models"
)

const activeRouteKey = "activeRoute"

// TemplateFuncs returns the helpers available to every view.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"navLink": navLink,
		"equal":   equal,
		"dict":    dict,
	}
}

// navLink renders a navigation item, highlighted when url is the active route.
func navLink(url, active, label string) template.HTML {
	class := "nav-item"
	if url == active {
		class = "nav-item active"
	}
	return template.HTML(fmt.Sprintf(`<li class="%s"><a class="nav-link" href="%s">%s</a></li>`,
		class, template.HTMLEscapeString(url), template.HTMLEscapeString(label)))
}

// equal compares the printed forms of a and b, so 3 equals "3".
func equal(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, errors.New("dict needs an even number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict key %v is not a string", kv[i])
		}
		m[k] = kv[i+1]
	}
	return m, nil
}

// activeRoute maps a request path to the navigation entry it belongs to:
// "/student/12" belongs to "/student", "/students/add/" to "/students/add".
func activeRoute(path string) string {
	route := strings.TrimPrefix(path, "/")
	parts := strings.Split(route, "/")
	if len(parts) > 1 {
		if _, err := strconv.ParseFloat(parts[1], 64); err == nil {
			return "/" + parts[0]
		}
	}
	return "/" + strings.TrimSuffix(route, "/")
}

// ActiveRoute stores the navigation entry of the current request for the views.
func ActiveRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(activeRouteKey, activeRoute(c.Request.URL.Path))
		c.Next()
	}
}

// formFields collects the posted form values, keeping the first value of each key.
func formFields(c *gin.Context) (models.StudentFields, error) {
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	fields := make(models.StudentFields, len(c.Request.PostForm))
	for k, v := range c.Request.PostForm {
		if len(v) > 0 {
			fields[k] = v[0]
		}
	}
	return fields, nil
}
