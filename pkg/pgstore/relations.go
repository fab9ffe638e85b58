package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/aggutenbergagency/open-admin/pkg/form"
)

// relation is the shared half of every variant handle.
type relation struct {
	store *Store
	owner *Record
	spec  RelationSpec
}

func (r *relation) Kind() form.RelationKind {
	return r.spec.Kind
}

// Related returns an unsaved prototype of the related record.
func (r *relation) Related() form.Record {
	return &Record{table: r.spec.Table, store: r.store, values: make(map[string]interface{})}
}

func (r *relation) findRelated(ctx context.Context, where string, args ...interface{}) (*Record, error) {
	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s LIMIT 1", r.spec.Table.Name, where)
	rows, err := r.store.queryRows(ctx, sql, args...)
	if err != nil {
		return nil, mapDatabaseError(err, r.spec.Table.Name, "SELECT")
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &Record{table: r.spec.Table, store: r.store, values: rows[0], exists: true}, nil
}

// ============================================================
// ONE TO ONE
// ============================================================

type oneToOne struct {
	relation
}

// Fetch returns the existing related row or a new one already pointing back
// at the owner.
func (r *oneToOne) Fetch(ctx context.Context) (form.Record, error) {
	existing, err := r.findRelated(ctx, r.spec.ForeignKey+" = $1", r.owner.PrimaryKey())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	fresh := r.Related().(*Record)
	fresh.Set(r.spec.ForeignKey, r.owner.PrimaryKey())
	return fresh, nil
}

// ============================================================
// MANY TO ONE (belongs-to)
// ============================================================

type manyToOne struct {
	relation
}

// Fetch returns the currently referenced row, or a new instance when the
// owner references nothing yet.
func (r *manyToOne) Fetch(ctx context.Context) (form.Record, error) {
	fk := r.owner.Get(r.spec.ForeignKey)
	if fk == nil {
		return r.Related(), nil
	}
	existing, err := r.findRelated(ctx, r.spec.Table.PrimaryKey+" = $1", fk)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return r.Related(), nil
}

// Associate points the owner's foreign key at related.
func (r *manyToOne) Associate(related form.Record) {
	r.owner.Set(r.spec.ForeignKey, related.PrimaryKey())
}

// ============================================================
// ONE TO MANY
// ============================================================

type oneToMany struct {
	relation
}

// FindOrNew resolves an existing child by primary key, or returns a new
// child bound to the owner. An unknown key also yields a new child.
func (r *oneToMany) FindOrNew(ctx context.Context, key interface{}) (form.Record, error) {
	if key != nil && key != "" {
		existing, err := r.findRelated(
			ctx,
			fmt.Sprintf("%s = $1 AND %s = $2", r.spec.Table.PrimaryKey, r.spec.ForeignKey),
			key, r.owner.PrimaryKey(),
		)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}
	fresh := r.Related().(*Record)
	fresh.Set(r.spec.ForeignKey, r.owner.PrimaryKey())
	return fresh, nil
}

// ============================================================
// MANY TO MANY
// ============================================================

type manyToMany struct {
	relation
}

// Sync replaces the pivot membership with ids: absent rows are detached,
// missing ones attached, the intersection left untouched.
func (r *manyToMany) Sync(ctx context.Context, ids []interface{}) error {
	db := r.store.db(ctx)
	ownerKey := r.owner.PrimaryKey()

	if len(ids) == 0 {
		sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", r.spec.Pivot, r.spec.PivotLocal)
		if _, err := db.Exec(ctx, sql, ownerKey); err != nil {
			return mapDatabaseError(err, r.spec.Pivot, "DELETE")
		}
		return nil
	}

	placeholders := make([]string, len(ids))
	args := append([]interface{}{ownerKey}, ids...)
	for i := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
	}
	in := strings.Join(placeholders, ", ")

	detach := fmt.Sprintf(
		"DELETE FROM %s WHERE %s = $1 AND %s NOT IN (%s)",
		r.spec.Pivot, r.spec.PivotLocal, r.spec.PivotRelated, in,
	)
	if _, err := db.Exec(ctx, detach, args...); err != nil {
		return mapDatabaseError(err, r.spec.Pivot, "DELETE")
	}

	for _, id := range ids {
		attach := fmt.Sprintf(
			"INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING",
			r.spec.Pivot, r.spec.PivotLocal, r.spec.PivotRelated,
		)
		if _, err := db.Exec(ctx, attach, ownerKey, id); err != nil {
			return mapDatabaseError(err, r.spec.Pivot, "INSERT")
		}
	}
	return nil
}
