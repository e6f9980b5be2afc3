package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// LooseInt coerces v to an int the way a form or a hand-edited document may
// carry a number: ints, integral floats, json.Number and numeric strings all
// convert. An empty string converts to 0. Values outside the int range do not
// convert.
func LooseInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint:
		return LooseInt(uint64(n))
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return LooseInt(uint64(n))
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		return LooseInt(string(n))
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	// -MinInt is a power of two and exact as a float64, MaxInt is not.
	if f < float64(math.MinInt) || f >= -float64(math.MinInt) {
		return 0, false
	}
	return int(f), true
}

// SameID reports whether a and b are the same identifier under strict
// equality. Numbers match numbers of equal value whatever their Go type,
// strings match equal strings, and a number never matches a string.
func SameID(a, b any) bool {
	if x, ok := number(a); ok {
		y, ok := number(b)
		return ok && x.Cmp(y) == 0
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case nil:
		return b == nil
	}
	return false
}

// MatchesText reports whether id, a stored identifier, is written as text.
// It lets a path or query parameter find a numeric id.
func MatchesText(id any, text string) bool {
	if s, ok := id.(string); ok {
		return s == text
	}
	x, ok := number(id)
	if !ok {
		return false
	}
	text = strings.TrimSpace(text)
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return false
	}
	y, ok := number(json.Number(text))
	return ok && x.Cmp(y) == 0
}

// number reads Go numeric kinds and json.Number. Strings are not numbers.
func number(v any) (*big.Rat, bool) {
	r := new(big.Rat)
	switch n := v.(type) {
	case int:
		return r.SetInt64(int64(n)), true
	case int8:
		return r.SetInt64(int64(n)), true
	case int16:
		return r.SetInt64(int64(n)), true
	case int32:
		return r.SetInt64(int64(n)), true
	case int64:
		return r.SetInt64(n), true
	case uint:
		return r.SetUint64(uint64(n)), true
	case uint8:
		return r.SetUint64(uint64(n)), true
	case uint16:
		return r.SetUint64(uint64(n)), true
	case uint32:
		return r.SetUint64(uint64(n)), true
	case uint64:
		return r.SetUint64(n), true
	case float32:
		return finite(r.SetFloat64(float64(n)))
	case float64:
		return finite(r.SetFloat64(n))
	case json.Number:
		_, ok := r.SetString(string(n))
		return r, ok
	}
	return nil, false
}

func finite(r *big.Rat) (*big.Rat, bool) {
	return r, r != nil
}

// IsChecked reports whether v is a submitted checkbox. Only the literal
// string "on" counts; a boolean true does not.
func IsChecked(v any) bool {
	s, ok := v.(string)
	return ok && s == "on"
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	}
	return fmt.Sprint(v)
}

func asBool(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// Apply merges f over s field by field. Keys absent from f keep their current
// value and unknown keys land in Extra. studentNum and TA are owned by the
// catalog and are not touched here.
func (s *Student) Apply(f StudentFields) {
	for k, v := range f {
		switch k {
		case "studentNum", "TA":
			continue
		case "firstName":
			s.FirstName = asString(v)
		case "lastName":
			s.LastName = asString(v)
		case "email":
			s.Email = asString(v)
		case "addressStreet":
			s.AddressStreet = asString(v)
		case "addressCity":
			s.AddressCity = asString(v)
		case "addressProvince":
			s.AddressProvince = asString(v)
		case "status":
			s.Status = asString(v)
		case "course":
			s.Course = v
		default:
			if s.Extra == nil {
				s.Extra = make(map[string]any)
			}
			s.Extra[k] = v
			continue
		}
		s.remember(k, v)
	}
}

// SetStudentNum sets the student number.
func (s *Student) SetStudentNum(n int) {
	s.StudentNum = n
	s.remember("studentNum", n)
}

// SetTA sets the teaching assistant flag.
func (s *Student) SetTA(ta bool) {
	s.TA = ta
	s.remember("TA", ta)
}

func (s *Student) remember(k string, v any) {
	if s.stored != nil {
		s.stored[k] = v
	}
}

// Clone returns a copy of s that shares no map with it.
func (s Student) Clone() Student {
	s.Extra = cloneMap(s.Extra)
	s.stored = cloneMap(s.stored)
	return s
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Fields returns s as raw fields, the inverse of Apply. A decoded record
// yields only the members it carries, with the values they were read with.
func (s Student) Fields() StudentFields {
	f := make(StudentFields, len(s.Extra)+len(StudentFieldNames))
	for k, v := range s.Extra {
		f[k] = v
	}
	if s.stored != nil {
		for k, v := range s.stored {
			f[k] = v
		}
		return f
	}
	f["studentNum"] = s.StudentNum
	f["firstName"] = s.FirstName
	f["lastName"] = s.LastName
	f["email"] = s.Email
	f["addressStreet"] = s.AddressStreet
	f["addressCity"] = s.AddressCity
	f["addressProvince"] = s.AddressProvince
	f["TA"] = s.TA
	f["status"] = s.Status
	f["course"] = s.Course
	return f
}

// MarshalJSON writes the known members together with Extra.
func (s Student) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(s.Fields()))
}

// UnmarshalJSON reads a stored student record. A studentNum stored as a
// string is accepted; course is kept as stored.
func (s *Student) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil || raw == nil {
		return err
	}
	*s = NewStudent()
	s.Apply(StudentFields(raw))
	if v, ok := raw["studentNum"]; ok {
		s.StudentNum, _ = LooseInt(v)
		s.stored["studentNum"] = v
	}
	if v, ok := raw["TA"]; ok {
		s.TA = asBool(v)
		s.stored["TA"] = v
	}
	return nil
}

// MarshalJSON writes the known members together with Extra.
func (c Course) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+3)
	for k, v := range c.Extra {
		out[k] = v
	}
	out["courseId"] = c.CourseID
	out["courseCode"] = c.CourseCode
	out["courseDescription"] = c.CourseDescription
	return json.Marshal(out)
}

// UnmarshalJSON reads a stored course record. courseId is kept as stored.
func (c *Course) UnmarshalJSON(data []byte) error {
	raw, err := decodeObject(data)
	if err != nil || raw == nil {
		return err
	}
	*c = Course{}
	for k, v := range raw {
		switch k {
		case "courseId":
			c.CourseID = v
		case "courseCode":
			c.CourseCode = asString(v)
		case "courseDescription":
			c.CourseDescription = asString(v)
		default:
			if c.Extra == nil {
				c.Extra = make(map[string]any)
			}
			c.Extra[k] = v
		}
	}
	return nil
}

func decodeObject(data []byte) (map[string]any, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}
