package models

// Course represents a course. Courses are read-only once loaded.
type Course struct {
	CourseID          any    `json:"courseId"`          // Unique course ID as stored: json.Number or string
	CourseCode        string `json:"courseCode"`        // Short code, e.g. "BTI325"
	CourseDescription string `json:"courseDescription"` // Human readable title

	// Extra carries any other members of the stored record unchanged.
	Extra map[string]any `json:"-"`
}

// Student represents a student
type Student struct {
	StudentNum      int    `json:"studentNum"` // Unique, assigned by the catalog on add
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Email           string `json:"email"`
	AddressStreet   string `json:"addressStreet"`
	AddressCity     string `json:"addressCity"`
	AddressProvince string `json:"addressProvince"`
	TA              bool   `json:"TA"`
	Status          string `json:"status"`
	Course          any    `json:"course"` // Course ID as stored, compared with SameID

	// Extra carries free-form profile fields through unchanged.
	Extra map[string]any `json:"-"`

	// stored holds the known members of a decoded record with their values
	// as read or last set. A nil map means the record was built in code and
	// every known member is written.
	stored map[string]any
}

// NewStudent returns an empty student that writes only the members set on it.
func NewStudent() Student {
	return Student{stored: make(map[string]any)}
}

// StudentFields holds raw, caller-supplied student fields as they arrive from
// a form post or a JSON body. Keys use the JSON member names of Student.
type StudentFields map[string]any

// StudentFieldNames lists the known student members in display order.
var StudentFieldNames = []string{
	"studentNum",
	"firstName",
	"lastName",
	"email",
	"addressStreet",
	"addressCity",
	"addressProvince",
	"TA",
	"status",
	"course",
}
