package form

import "context"

// ============================================================
// RECORD CONTRACT
// ============================================================

// Record is the persisted entity the form writes to. The form never owns a
// record's schema; it only reads and assigns attributes and walks declared
// relations through the capability lookup below.
type Record interface {
	// Get returns the current value of a column, or nil.
	Get(column string) interface{}

	// Set assigns a column value on the in-memory record.
	Set(column string, value interface{})

	// PrimaryKeyName returns the primary key column name.
	PrimaryKeyName() string

	// PrimaryKey returns the current primary key value, or nil for a new record.
	PrimaryKey() interface{}

	// Relation returns the relation handle for name, or false when the
	// record declares no such relation. This is the capability check the
	// resolver uses to tell relation columns from plain dotted columns.
	Relation(name string) (Relation, bool)
}

// SoftDeletable is an optional record capability. Records reporting
// SoftDeletes are soft-deleted first and hard-deleted only once trashed.
type SoftDeletable interface {
	SoftDeletes() bool
	Trashed() bool
}

// Orderable is an optional record capability used by the grid's
// move-up/move-down inline action.
type Orderable interface {
	MoveUp(ctx context.Context) error
	MoveDown(ctx context.Context) error
}

// ============================================================
// RELATION CONTRACT
// ============================================================

type RelationKind string

const (
	RelationOneToOne   RelationKind = "OneToOne"
	RelationManyToOne  RelationKind = "ManyToOne"
	RelationOneToMany  RelationKind = "OneToMany"
	RelationManyToMany RelationKind = "ManyToMany"
)

// Relation is a handle on a declared association. The orchestrator never
// re-checks concrete types at write time; a relation is classified once into
// exactly one of the four variant interfaces below.
type Relation interface {
	Kind() RelationKind

	// Related returns a prototype of the related record, used to resolve
	// sub-relations and to read the related primary key name.
	Related() Record
}

// OneToOne is a has-one relation: fetch-or-instantiate the related record,
// assign the payload onto it and save it.
type OneToOne interface {
	Relation

	// Fetch returns the existing related record or a new instance already
	// bound to the owner.
	Fetch(ctx context.Context) (Record, error)
}

// ManyToOne is the inverse (belongs-to) direction: after saving the related
// record it is associated back onto the owner, which is saved again.
type ManyToOne interface {
	Relation

	Fetch(ctx context.Context) (Record, error)

	// Associate points the owner's foreign key at related.
	Associate(related Record)
}

// OneToMany is a has-many relation written row by row.
type OneToMany interface {
	Relation

	// FindOrNew resolves an existing child by primary key value, or returns
	// a new child bound to the owner when key is nil. A missing row for a
	// non-nil key also yields a new child.
	FindOrNew(ctx context.Context, key interface{}) (Record, error)
}

// ManyToMany replaces the full membership set in one sync: missing ids are
// attached, absent ids detached, the intersection left untouched.
type ManyToMany interface {
	Relation

	Sync(ctx context.Context, ids []interface{}) error
}

// ============================================================
// STORE CONTRACT
// ============================================================

// FindOptions controls record loading.
type FindOptions struct {
	// With lists top-level relation names to eager-load alongside the
	// record. Nested paths such as "comments.tags" are not understood;
	// sub-relations load through their parent's relation handle.
	With []string

	// WithTrashed includes soft-deleted rows in the lookup.
	WithTrashed bool
}

// Store is the persistence collaborator. One store serves the whole record
// graph of a resource: Save and Delete accept any record the store (or one of
// its relation handles) produced.
type Store interface {
	// Find loads a record by primary key. Returns ErrNotFound when no row
	// matches.
	Find(ctx context.Context, id interface{}, opts FindOptions) (Record, error)

	// NewRecord returns an empty, unsaved record of the primary resource.
	NewRecord() Record

	// Save inserts or updates the record.
	Save(ctx context.Context, rec Record) error

	// Delete removes the record, soft-deleting when the record supports it.
	Delete(ctx context.Context, rec Record) error

	// ForceDelete removes the record permanently regardless of soft-delete
	// support.
	ForceDelete(ctx context.Context, rec Record) error

	// RunAtomically executes fn inside one transaction. Store calls made
	// with the context passed to fn join that transaction.
	RunAtomically(ctx context.Context, fn func(ctx context.Context) error) error
}
