package models

// SectionScope replaces the null-as-wildcard SQL convention: a row with a
// NULL section applies to every section of its class. The scope makes that rule
// an explicit, testable value instead of an implicit three-way OR in queries.

// SectionScope is either every section of a class or one specific section.
type SectionScope struct {
	id  string
	all bool
}

// AllSections returns the scope covering every section of a class.
func AllSections() SectionScope {
	return SectionScope{all: true}
}

// OneSection returns the scope for a single section.
func OneSection(id string) SectionScope {
	if id == "" {
		return AllSections()
	}
	return SectionScope{id: id}
}

// ScopeFromNullable maps a nullable section column to a scope.
func ScopeFromNullable(id *string) SectionScope {
	if id == nil || *id == "" {
		return AllSections()
	}
	return SectionScope{id: *id}
}

// IsAll reports whether the scope covers every section.
func (s SectionScope) IsAll() bool {
	return s.all
}

// SectionID returns the specific section id, empty for the all-sections scope.
func (s SectionScope) SectionID() string {
	if s.all {
		return ""
	}
	return s.id
}

// Nullable converts the scope back to the nullable column representation.
func (s SectionScope) Nullable() *string {
	if s.all {
		return nil
	}
	id := s.id
	return &id
}

// Covers reports whether an assignment scoped to s grants access to a request
// scoped to req.
//
// The legacy rule is symmetric: an all-sections assignment satisfies any
// request AND a request that names no section is satisfied by any
// single-section assignment. The second half is almost certainly unintended
// (a section-A teacher gains class-wide access by omitting the section), so
// strict mode requires an all-sections assignment for an all-sections request.
func (s SectionScope) Covers(req SectionScope, strict bool) bool {
	if s.all {
		return true
	}
	if req.all {
		return !strict
	}
	return s.id == req.id
}
