package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Mutation failures. Callers map these onto their own error vocabulary.
var (
	ErrCourseNotFound    = errors.New("course not found")
	ErrComponentNotFound = errors.New("component not found")
	ErrDuplicateID       = errors.New("component id already in use")
)

// FieldError reports a rejected field value.
type FieldError struct {
	Field  ComponentField
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ComponentField names an editable component attribute.
type ComponentField string

const (
	FieldName     ComponentField = "name"
	FieldDate     ComponentField = "date"
	FieldMax      ComponentField = "max"
	FieldObtained ComponentField = "obtained"
	FieldGroup    ComponentField = "group"
)

// ParseMarks coerces user input into a non-negative finite number.
func ParseMarks(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	if value < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return value, nil
}

// Clone returns a deep copy that shares no slices or pointers with c.
func (c Collection) Clone() Collection {
	out := Collection{Courses: make([]Course, len(c.Courses)), NextCourseID: c.NextCourseID}
	for i, course := range c.Courses {
		out.Courses[i] = course.clone()
	}
	return out
}

func (c Course) clone() Course {
	out := c
	out.Components = make([]Component, len(c.Components))
	for i, comp := range c.Components {
		if comp.Obtained != nil {
			v := *comp.Obtained
			comp.Obtained = &v
		}
		out.Components[i] = comp
	}
	return out
}

// withCourse clones the collection, applies fn to the matching course and recomputes its total.
func (c Collection) withCourse(id int, fn func(*Course) error) (Collection, error) {
	idx := c.courseIndex(id)
	if idx < 0 {
		return c, ErrCourseNotFound
	}
	next := c.Clone()
	if err := fn(&next.Courses[idx]); err != nil {
		return c, err
	}
	next.Courses[idx].Recalculate()
	return next, nil
}

// AddCourse appends a course with the next unused id. Ids of removed courses are not reused.
func (c Collection) AddCourse(name string) (Collection, Course) {
	id := c.nextCourseID()
	course := Course{ID: id, Name: name, Components: []Component{}}
	next := c.Clone()
	next.Courses = append(next.Courses, course)
	next.NextCourseID = id + 1
	return next, course
}

// RemoveCourse drops a course and everything it owns.
func (c Collection) RemoveCourse(id int) (Collection, error) {
	idx := c.courseIndex(id)
	if idx < 0 {
		return c, ErrCourseNotFound
	}
	next := c.Clone()
	next.Courses = append(next.Courses[:idx], next.Courses[idx+1:]...)
	return next, nil
}

// SetCourseName renames a course.
func (c Collection) SetCourseName(id int, name string) (Collection, error) {
	return c.withCourse(id, func(course *Course) error {
		course.Name = name
		return nil
	})
}

// AddComponent appends comp to the course. comp.ID must be set and unique within the course.
func (c Collection) AddComponent(courseID int, comp Component) (Collection, error) {
	return c.withCourse(courseID, func(course *Course) error {
		if comp.ID == "" || course.componentIndex(comp.ID) >= 0 {
			return ErrDuplicateID
		}
		if comp.Obtained != nil {
			v := *comp.Obtained
			comp.Obtained = &v
		}
		course.Components = append(course.Components, comp)
		return nil
	})
}

// RemoveComponent deletes a component from its course.
func (c Collection) RemoveComponent(courseID int, componentID string) (Collection, error) {
	return c.withCourse(courseID, func(course *Course) error {
		idx := course.componentIndex(componentID)
		if idx < 0 {
			return ErrComponentNotFound
		}
		course.Components = append(course.Components[:idx], course.Components[idx+1:]...)
		return nil
	})
}

// ClearComponents empties a course's component list.
func (c Collection) ClearComponents(courseID int) (Collection, error) {
	return c.withCourse(courseID, func(course *Course) error {
		course.Components = []Component{}
		return nil
	})
}

// UpdateComponentField coerces raw into the named field. Invalid input leaves the collection unchanged.
func (c Collection) UpdateComponentField(courseID int, componentID string, field ComponentField, raw string) (Collection, error) {
	return c.withCourse(courseID, func(course *Course) error {
		idx := course.componentIndex(componentID)
		if idx < 0 {
			return ErrComponentNotFound
		}
		return applyField(&course.Components[idx], field, raw)
	})
}

func applyField(comp *Component, field ComponentField, raw string) error {
	switch field {
	case FieldName:
		comp.Name = raw
	case FieldDate:
		date, err := ParseDate(raw)
		if err != nil {
			return &FieldError{Field: field, Reason: err.Error()}
		}
		comp.Date = date
	case FieldMax:
		if strings.TrimSpace(raw) == "" {
			comp.Max = 0
			return nil
		}
		value, err := ParseMarks(raw)
		if err != nil {
			return &FieldError{Field: field, Reason: err.Error()}
		}
		comp.Max = value
	case FieldObtained:
		if strings.TrimSpace(raw) == "" {
			comp.Obtained = nil
			return nil
		}
		value, err := ParseMarks(raw)
		if err != nil {
			return &FieldError{Field: field, Reason: err.Error()}
		}
		comp.Obtained = &value
	case FieldGroup:
		group, ok := ParseGroup(raw)
		if !ok {
			return &FieldError{Field: field, Reason: fmt.Sprintf("unknown group %q", raw)}
		}
		comp.Group = group
	default:
		return &FieldError{Field: field, Reason: "unknown field"}
	}
	return nil
}
