package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatchBuilderOrdering(t *testing.T) {
	b := newPatchBuilder()
	day := "Tuesday"
	start := "08:30"
	setPtr(b, "day_of_week", &day)
	setPtr(b, "end_time", (*string)(nil))
	setPtr(b, "start_time", &start)

	assert.Equal(t, []string{"day_of_week = $1", "start_time = $2"}, b.clauses)
	assert.Equal(t, []interface{}{"Tuesday", "08:30"}, b.args)
	assert.False(t, b.empty())

	idx := b.where("row-1")
	assert.Equal(t, 3, idx)
	assert.Equal(t, "row-1", b.args[2])
}

func TestPatchBuilderNullableClearsOnEmpty(t *testing.T) {
	b := newPatchBuilder()
	room := ""
	title := "Lunch"
	setNullablePtr(b, "room", &room)
	setNullablePtr(b, "title", &title)
	setNullablePtr(b, "subject_id", nil)

	assert.Equal(t, []string{"room = $1", "title = $2"}, b.clauses)
	assert.Nil(t, b.args[0])
	assert.Equal(t, "Lunch", b.args[1])
}

func TestPatchBuilderEmpty(t *testing.T) {
	b := newPatchBuilder()
	assert.True(t, b.empty())
}
