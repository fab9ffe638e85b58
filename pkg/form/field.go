package form

import "sort"

// ============================================================
// COLUMN IDENTITY
// ============================================================

// Column is a field's column identity: either a single (possibly dotted)
// path, or a named set of paths for composite widgets such as a date range
// mapping to {start, end}.
type Column struct {
	path  string
	named map[string]string
}

// NewColumn builds a scalar column identity.
func NewColumn(path string) Column {
	return Column{path: path}
}

// NewCompositeColumn builds a composite column identity from widget-local
// names to column paths.
func NewCompositeColumn(named map[string]string) Column {
	return Column{named: named}
}

// IsComposite reports whether the column maps multiple named paths.
func (c Column) IsComposite() bool {
	return c.named != nil
}

// Path returns the scalar path. Empty for composite columns.
func (c Column) Path() string {
	return c.path
}

// Named returns the composite name→path map, or nil.
func (c Column) Named() map[string]string {
	return c.named
}

// Paths returns every column path, sorted for composite columns so callers
// iterate deterministically.
func (c Column) Paths() []string {
	if c.named == nil {
		return []string{c.path}
	}
	paths := make([]string, 0, len(c.named))
	for _, p := range c.named {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Names returns the composite names in sorted order.
func (c Column) Names() []string {
	names := make([]string, 0, len(c.named))
	for name := range c.named {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// First returns the scalar path, or the first sorted composite path. Used as
// the key for validation messages.
func (c Column) First() string {
	return c.Paths()[0]
}

// Matches reports whether name identifies this column, either as the scalar
// path or as one of the composite sub-paths.
func (c Column) Matches(name string) bool {
	if c.named == nil {
		return c.path == name
	}
	for _, p := range c.named {
		if p == name {
			return true
		}
	}
	return false
}

// ============================================================
// FIELD CONTRACT
// ============================================================

// Field maps one widget to one or more record columns. Fields are immutable
// after form construction; per-request state travels through explicit
// prepare options, never on the field itself.
type Field interface {
	// Column returns the field's column identity.
	Column() Column

	// Prepare transforms an extracted raw value into its storable form.
	// Absent in means the column was not submitted; fields must return
	// Absent() for it rather than a default.
	Prepare(v Value) Value

	// Validate checks the raw submission and returns a message when the
	// field's value is invalid, or nil. partial marks a partial submission
	// (an update or inline edit): an absent column means "don't touch" and
	// passes, instead of failing the required check.
	Validate(input map[string]interface{}, partial bool) error

	// HasRelation reports whether the column names a declared relation
	// rather than an own attribute.
	HasRelation() bool
}

// RelationPreparer is an optional field capability: an extra transform
// applied only when preparing relation payloads.
type RelationPreparer interface {
	PrepareForRelation(v Value) Value
}

// NestedField is a relation field carrying its own sub-form, used to resolve
// and write sub-relations of a has-many relation.
type NestedField interface {
	Field

	// SubFields returns the nested form's fields in declaration order.
	SubFields() []Field
}

// FileOwner is a field owning external file content; the orchestrator purges
// it when the record is hard-deleted.
type FileOwner interface {
	Field

	// DestroyFile removes the file content referenced by rec's column value.
	DestroyFile(rec Record) error
}
