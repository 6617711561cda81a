package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Group tags a component for display grouping. Empty means ungrouped.
type Group string

const (
	GroupNone       Group = ""
	GroupAssignment Group = "Assignment"
	GroupQuiz       Group = "Quiz"
	GroupLab        Group = "Lab"
	GroupProject    Group = "Project"
	GroupMidsem     Group = "Midsem"
	GroupEndsem     Group = "Endsem"
)

// Groups lists the accepted component groups in display order.
var Groups = []Group{GroupAssignment, GroupQuiz, GroupLab, GroupProject, GroupMidsem, GroupEndsem}

// ParseGroup matches raw case-insensitively against the known groups.
func ParseGroup(raw string) (Group, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return GroupNone, true
	}
	for _, g := range Groups {
		if strings.EqualFold(raw, string(g)) {
			return g, true
		}
	}
	return GroupNone, false
}

// Component is one gradable item inside a course.
type Component struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Date     Date     `json:"date"`
	Max      float64  `json:"max"`
	Obtained *float64 `json:"obtained"`
	Group    Group    `json:"group,omitempty"`
}

// Graded reports whether a score has been recorded.
func (c Component) Graded() bool { return c.Obtained != nil }

// Finished reports whether the component's date is strictly before today.
func (c Component) Finished(today Date) bool {
	return !c.Date.IsZero() && c.Date.Before(today)
}

// UnmarshalJSON tolerates marks stored as strings, and "" for an absent score.
func (c *Component) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Date     Date            `json:"date"`
		Max      json.RawMessage `json:"max"`
		Obtained json.RawMessage `json:"obtained"`
		Group    Group           `json:"group"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	maxMarks, err := decodeMarks(raw.Max)
	if err != nil {
		return fmt.Errorf("component max: %w", err)
	}
	obtained, err := decodeMarks(raw.Obtained)
	if err != nil {
		return fmt.Errorf("component obtained: %w", err)
	}
	*c = Component{ID: raw.ID, Name: raw.Name, Date: raw.Date, Group: raw.Group, Obtained: obtained}
	if maxMarks != nil {
		c.Max = *maxMarks
	}
	return nil
}

// decodeMarks returns nil for a missing, null or empty value.
func decodeMarks(raw json.RawMessage) (*float64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%s is not a number", raw)
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	n, err := ParseMarks(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Course owns an ordered list of components. TotalMarks is derived from them.
type Course struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	TotalMarks float64     `json:"totalMarks"`
	Components []Component `json:"components"`
}

// Recalculate refreshes TotalMarks from the components' max values.
func (c *Course) Recalculate() {
	var total float64
	for _, comp := range c.Components {
		total += comp.Max
	}
	c.TotalMarks = total
}

// Component returns the component with the given id.
func (c Course) Component(id string) (Component, bool) {
	if idx := c.componentIndex(id); idx >= 0 {
		return c.Components[idx], true
	}
	return Component{}, false
}

func (c Course) componentIndex(id string) int {
	for i, comp := range c.Components {
		if comp.ID == id {
			return i
		}
	}
	return -1
}

// UnmarshalJSON accepts numeric or numeric-string ids and the legacy "evaluatives" list.
func (c *Course) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          json.RawMessage `json:"id"`
		Name        string          `json:"name"`
		TotalMarks  float64         `json:"totalMarks"`
		Components  []Component     `json:"components"`
		Evaluatives []Component     `json:"evaluatives"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, err := parseCourseID(raw.ID)
	if err != nil {
		return err
	}
	c.ID = id
	c.Name = raw.Name
	c.TotalMarks = raw.TotalMarks
	c.Components = raw.Components
	if c.Components == nil {
		c.Components = raw.Evaluatives
	}
	return nil
}

func parseCourseID(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("course id is required")
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("course id must be a number: %s", raw)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("course id must be numeric, got %q", s)
	}
	return n, nil
}

// Collection is the full ordered set of courses and the unit of persistence.
// NextCourseID is the high-water mark for course ids so removed ids are never handed out again.
type Collection struct {
	Courses      []Course `json:"courses"`
	NextCourseID int      `json:"nextCourseId,omitempty"`
}

// UnmarshalJSON accepts both {"courses": [...]} and a bare array of courses.
func (c *Collection) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var courses []Course
		if err := json.Unmarshal(trimmed, &courses); err != nil {
			return err
		}
		c.Courses = courses
		return nil
	}
	var wrapped struct {
		Courses      *[]Course `json:"courses"`
		NextCourseID int       `json:"nextCourseId"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return err
	}
	if wrapped.Courses == nil {
		return fmt.Errorf("collection has no courses field")
	}
	c.Courses = *wrapped.Courses
	c.NextCourseID = wrapped.NextCourseID
	return nil
}

// Course returns the course with the given id.
func (c Collection) Course(id int) (Course, bool) {
	if idx := c.courseIndex(id); idx >= 0 {
		return c.Courses[idx], true
	}
	return Course{}, false
}

// nextCourseID is the larger of the stored high-water mark and max(id)+1.
func (c Collection) nextCourseID() int {
	next := c.NextCourseID
	if next < 1 {
		next = 1
	}
	for _, course := range c.Courses {
		if course.ID >= next {
			next = course.ID + 1
		}
	}
	return next
}

func (c Collection) courseIndex(id int) int {
	for i, course := range c.Courses {
		if course.ID == id {
			return i
		}
	}
	return -1
}

// Normalize assigns ids to components that lack one, replaces nil slices,
// raises NextCourseID above every course id and recomputes every course total.
// It reports whether anything beyond the derived fields changed.
func (c *Collection) Normalize(newID func() string) bool {
	changed := false
	if c.Courses == nil {
		c.Courses = []Course{}
		changed = true
	}
	c.NextCourseID = c.nextCourseID()
	for i := range c.Courses {
		course := &c.Courses[i]
		if course.Components == nil {
			course.Components = []Component{}
		}
		for j := range course.Components {
			if course.Components[j].ID == "" && newID != nil {
				course.Components[j].ID = newID()
				changed = true
			}
		}
		course.Recalculate()
	}
	return changed
}

// SeedCollection builds the first-run collection of placeholder courses.
func SeedCollection(count int) Collection {
	if count < 0 {
		count = 0
	}
	courses := make([]Course, count)
	for i := range courses {
		courses[i] = Course{
			ID:         i + 1,
			Name:       fmt.Sprintf("Course %d: Subject Name", i+1),
			Components: []Component{},
		}
	}
	return Collection{Courses: courses, NextCourseID: count + 1}
}
