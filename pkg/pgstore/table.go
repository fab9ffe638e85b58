package pgstore

import "github.com/aggutenbergagency/open-admin/pkg/form"

// RelationSpec declares one association of a table.
type RelationSpec struct {
	Kind form.RelationKind

	// Table is the related table.
	Table *Table

	// ForeignKey is the referencing column: on the related table for
	// OneToOne/OneToMany, on the owner for ManyToOne. Unused for
	// ManyToMany.
	ForeignKey string

	// Pivot settings, ManyToMany only.
	Pivot        string
	PivotLocal   string
	PivotRelated string
}

// Table describes one database table the store persists records to.
type Table struct {
	Name       string
	PrimaryKey string

	// SoftDeletes enables the deleted_at convention: Delete marks the row,
	// ForceDelete removes it.
	SoftDeletes bool

	// OrderColumn, when set, makes records orderable via position swaps.
	OrderColumn string

	Relations map[string]RelationSpec
}

// deletedAtColumn is the soft-delete timestamp column.
const deletedAtColumn = "deleted_at"

func (t *Table) relation(name string) (RelationSpec, bool) {
	spec, ok := t.Relations[name]
	return spec, ok
}
