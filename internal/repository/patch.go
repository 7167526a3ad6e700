package repository

import "fmt"

// patchBuilder accumulates SET clauses from typed patch structs. Each entity's
// Update names its columns explicitly in a fixed order; nil fields are skipped,
// so only the named columns are ever touched.
type patchBuilder struct {
	clauses []string
	args    []interface{}
}

func newPatchBuilder() *patchBuilder {
	return &patchBuilder{}
}

// setPtr appends "col = $n" when the field was provided.
func setPtr[T any](b *patchBuilder, col string, v *T) {
	if v == nil {
		return
	}
	b.args = append(b.args, *v)
	b.clauses = append(b.clauses, fmt.Sprintf("%s = $%d", col, len(b.args)))
}

// setNullablePtr appends "col = $n" binding NULL when the inner value is empty.
// Used for columns where a provided-but-empty value means "clear".
func setNullablePtr(b *patchBuilder, col string, v *string) {
	if v == nil {
		return
	}
	if *v == "" {
		b.args = append(b.args, nil)
	} else {
		b.args = append(b.args, *v)
	}
	b.clauses = append(b.clauses, fmt.Sprintf("%s = $%d", col, len(b.args)))
}

func (b *patchBuilder) empty() bool {
	return len(b.clauses) == 0
}

// where appends a trailing positional arg (usually the row id) and returns its
// placeholder index.
func (b *patchBuilder) where(arg interface{}) int {
	b.args = append(b.args, arg)
	return len(b.args)
}
