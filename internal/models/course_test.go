package models

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestCollectionDecodeLegacyShapes(t *testing.T) {
	raw := `[{"id":"2","name":"Physics","totalMarks":999,"evaluatives":[
		{"name":"Lab","date":"2024-05-10","max":"20","obtained":""},
		{"name":"Quiz","date":"","max":10,"obtained":7}
	]}]`

	var col Collection
	require.NoError(t, json.Unmarshal([]byte(raw), &col))
	require.Len(t, col.Courses, 1)

	course := col.Courses[0]
	assert.Equal(t, 2, course.ID)
	require.Len(t, course.Components, 2)
	assert.Equal(t, 20.0, course.Components[0].Max)
	assert.Nil(t, course.Components[0].Obtained)
	assert.True(t, course.Components[1].Date.IsZero())
	require.NotNil(t, course.Components[1].Obtained)
	assert.Equal(t, 7.0, *course.Components[1].Obtained)

	assert.True(t, col.Normalize(sequentialIDs()))
	assert.Equal(t, 30.0, col.Courses[0].TotalMarks)
	assert.Equal(t, "id-1", col.Courses[0].Components[0].ID)
	assert.Equal(t, "id-2", col.Courses[0].Components[1].ID)
	assert.False(t, col.Normalize(sequentialIDs()))
}

func TestCollectionDecodeRejectsCorruption(t *testing.T) {
	cases := map[string]string{
		"garbage":       `{not json`,
		"null":          `null`,
		"no courses":    `{"items":[]}`,
		"bad id":        `{"courses":[{"id":"abc","name":"x","components":[]}]}`,
		"missing id":    `{"courses":[{"name":"x","components":[]}]}`,
		"negative mark": `{"courses":[{"id":1,"name":"x","components":[{"name":"a","max":"-5"}]}]}`,
		"bad date":      `{"courses":[{"id":1,"name":"x","components":[{"name":"a","date":"soon"}]}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var col Collection
			assert.Error(t, json.Unmarshal([]byte(raw), &col))
		})
	}
}

func TestCollectionEncodeShape(t *testing.T) {
	obtained := 40.0
	col := Collection{Courses: []Course{{
		ID:   1,
		Name: "Maths",
		Components: []Component{
			{ID: "c1", Name: "Midsem", Date: NewDate(2024, 5, 14), Max: 50, Obtained: &obtained, Group: GroupMidsem},
			{ID: "c2", Name: "Endsem", Max: 50},
		},
	}}}
	col.Normalize(nil)

	out, err := json.Marshal(col)
	require.NoError(t, err)
	assert.JSONEq(t, `{"courses":[{"id":1,"name":"Maths","totalMarks":100,"components":[
		{"id":"c1","name":"Midsem","date":"2024-05-14","max":50,"obtained":40,"group":"Midsem"},
		{"id":"c2","name":"Endsem","date":"","max":50,"obtained":null}
	]}],"nextCourseId":2}`, string(out))

	var back Collection
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, col, back)
}

func TestSeedCollection(t *testing.T) {
	col := SeedCollection(7)
	require.Len(t, col.Courses, 7)
	for i, course := range col.Courses {
		assert.Equal(t, i+1, course.ID)
		assert.Equal(t, fmt.Sprintf("Course %d: Subject Name", i+1), course.Name)
		assert.Zero(t, course.TotalMarks)
		assert.Empty(t, course.Components)
		assert.NotNil(t, course.Components)
	}
	assert.Empty(t, SeedCollection(-1).Courses)
}

func TestParseGroup(t *testing.T) {
	g, ok := ParseGroup("quiz")
	assert.True(t, ok)
	assert.Equal(t, GroupQuiz, g)

	g, ok = ParseGroup("")
	assert.True(t, ok)
	assert.Equal(t, GroupNone, g)

	_, ok = ParseGroup("Viva")
	assert.False(t, ok)
}

func TestComponentFinished(t *testing.T) {
	today := NewDate(2024, 5, 15)
	assert.True(t, Component{Date: today.AddDays(-1)}.Finished(today))
	assert.False(t, Component{Date: today}.Finished(today))
	assert.False(t, Component{}.Finished(today))
}
