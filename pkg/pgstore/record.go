package pgstore

import (
	"context"
	"fmt"

	"github.com/aggutenbergagency/open-admin/pkg/form"
)

// Record is one row of a table, tracked with dirty columns so updates only
// touch what changed.
type Record struct {
	table  *Table
	store  *Store
	values map[string]interface{}
	dirty  map[string]bool
	exists bool
	loaded map[string][]map[string]interface{}
}

// Get returns the current value of a column, or nil.
func (r *Record) Get(column string) interface{} {
	return r.values[column]
}

// Set assigns a column value and marks it dirty.
func (r *Record) Set(column string, value interface{}) {
	if r.values == nil {
		r.values = make(map[string]interface{})
	}
	if r.dirty == nil {
		r.dirty = make(map[string]bool)
	}
	r.values[column] = value
	r.dirty[column] = true
}

// Values returns the full column map, useful for rendering.
func (r *Record) Values() map[string]interface{} {
	return r.values
}

// PrimaryKeyName returns the table's primary key column.
func (r *Record) PrimaryKeyName() string {
	return r.table.PrimaryKey
}

// PrimaryKey returns the current key value, or nil for a new record.
func (r *Record) PrimaryKey() interface{} {
	return r.values[r.table.PrimaryKey]
}

// Relation returns a handle for a declared relation, classified into its
// variant once here so the orchestrator never re-checks types at write time.
func (r *Record) Relation(name string) (form.Relation, bool) {
	spec, ok := r.table.relation(name)
	if !ok {
		return nil, false
	}

	base := relation{store: r.store, owner: r, spec: spec}
	switch spec.Kind {
	case form.RelationOneToOne:
		return &oneToOne{base}, true
	case form.RelationManyToOne:
		return &manyToOne{base}, true
	case form.RelationOneToMany:
		return &oneToMany{base}, true
	case form.RelationManyToMany:
		return &manyToMany{base}, true
	default:
		return nil, false
	}
}

// Loaded returns eager-loaded relation rows.
func (r *Record) Loaded(name string) []map[string]interface{} {
	return r.loaded[name]
}

func (r *Record) setLoaded(name string, rows []map[string]interface{}) {
	if r.loaded == nil {
		r.loaded = make(map[string][]map[string]interface{})
	}
	r.loaded[name] = rows
}

// ============================================================
// Capabilities
// ============================================================

// SoftDeletes reports whether the table uses the deleted_at convention.
func (r *Record) SoftDeletes() bool {
	return r.table.SoftDeletes
}

// Trashed reports whether the row is currently soft-deleted.
func (r *Record) Trashed() bool {
	return r.table.SoftDeletes && r.values[deletedAtColumn] != nil
}

// MoveUp swaps the record with its predecessor in the order column.
func (r *Record) MoveUp(ctx context.Context) error {
	return r.move(ctx, true)
}

// MoveDown swaps the record with its successor in the order column.
func (r *Record) MoveDown(ctx context.Context) error {
	return r.move(ctx, false)
}

func (r *Record) move(ctx context.Context, up bool) error {
	if r.table.OrderColumn == "" {
		return fmt.Errorf("table %s has no order column", r.table.Name)
	}

	op, dir := "<", "DESC"
	if !up {
		op, dir = ">", "ASC"
	}

	// Find the adjacent row in the requested direction.
	sql := fmt.Sprintf(
		"SELECT * FROM %s WHERE %s %s $1 ORDER BY %s %s LIMIT 1",
		r.table.Name, r.table.OrderColumn, op, r.table.OrderColumn, dir,
	)
	rows, err := r.store.queryRows(ctx, sql, r.values[r.table.OrderColumn])
	if err != nil {
		return mapDatabaseError(err, r.table.Name, "SELECT")
	}
	if len(rows) == 0 {
		return nil // already first/last
	}
	neighbor := rows[0]

	swap := fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = $2", r.table.Name, r.table.OrderColumn, r.table.PrimaryKey)
	if _, err := r.store.db(ctx).Exec(ctx, swap, neighbor[r.table.OrderColumn], r.PrimaryKey()); err != nil {
		return mapDatabaseError(err, r.table.Name, "UPDATE")
	}
	if _, err := r.store.db(ctx).Exec(ctx, swap, r.values[r.table.OrderColumn], neighbor[r.table.PrimaryKey]); err != nil {
		return mapDatabaseError(err, r.table.Name, "UPDATE")
	}
	r.values[r.table.OrderColumn] = neighbor[r.table.OrderColumn]
	return nil
}
