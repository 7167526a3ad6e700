package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionScopeConstructors(t *testing.T) {
	assert.True(t, AllSections().IsAll())
	assert.True(t, OneSection("").IsAll())
	assert.False(t, OneSection("sec-1").IsAll())
	assert.Equal(t, "sec-1", OneSection("sec-1").SectionID())

	assert.True(t, ScopeFromNullable(nil).IsAll())
	empty := ""
	assert.True(t, ScopeFromNullable(&empty).IsAll())
	id := "sec-2"
	assert.Equal(t, "sec-2", ScopeFromNullable(&id).SectionID())
}

func TestSectionScopeNullable(t *testing.T) {
	assert.Nil(t, AllSections().Nullable())

	got := OneSection("sec-1").Nullable()
	if assert.NotNil(t, got) {
		assert.Equal(t, "sec-1", *got)
	}
}

func TestSectionScopeCovers(t *testing.T) {
	cases := []struct {
		name       string
		assignment SectionScope
		request    SectionScope
		strict     bool
		want       bool
	}{
		{"all covers all", AllSections(), AllSections(), false, true},
		{"all covers one", AllSections(), OneSection("a"), false, true},
		{"same section", OneSection("a"), OneSection("a"), false, true},
		{"different section", OneSection("a"), OneSection("b"), false, false},
		{"one covers all when permissive", OneSection("a"), AllSections(), false, true},
		{"one denies all when strict", OneSection("a"), AllSections(), true, false},
		{"all covers all when strict", AllSections(), AllSections(), true, true},
		{"same section when strict", OneSection("a"), OneSection("a"), true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.assignment.Covers(tc.request, tc.strict))
		})
	}
}
