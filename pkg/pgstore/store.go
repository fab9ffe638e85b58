package pgstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aggutenbergagency/open-admin/pkg/form"
)

// querier is the subset of pgx satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type txKey struct{}

// Store is the pgx-backed form.Store for one resource table. One store
// serves the resource's whole relation graph: records produced by relation
// handles carry their own table and save through the same store.
type Store struct {
	pool  *pgxpool.Pool
	table *Table
}

// New creates a store over an established pool.
func New(pool *pgxpool.Pool, table *Table) *Store {
	return &Store{pool: pool, table: table}
}

// Table returns the primary resource table.
func (s *Store) Table() *Table {
	return s.table
}

// db returns the active transaction from ctx, or the pool.
func (s *Store) db(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

// ============================================================
// form.Store implementation
// ============================================================

// Find loads a record by primary key, eager-loading the requested top-level
// relations.
func (s *Store) Find(ctx context.Context, id interface{}, opts form.FindOptions) (form.Record, error) {
	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", s.table.Name, s.table.PrimaryKey)
	if s.table.SoftDeletes && !opts.WithTrashed {
		sql += fmt.Sprintf(" AND %s IS NULL", deletedAtColumn)
	}

	rows, err := s.queryRows(ctx, sql, id)
	if err != nil {
		return nil, mapDatabaseError(err, s.table.Name, "SELECT")
	}
	if len(rows) == 0 {
		return nil, form.ErrNotFound
	}

	rec := &Record{table: s.table, store: s, values: rows[0], exists: true}
	for _, name := range opts.With {
		if err := s.eagerLoad(ctx, rec, name); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// eagerLoad fetches a relation's current rows onto the record for display.
func (s *Store) eagerLoad(ctx context.Context, rec *Record, name string) error {
	spec, ok := rec.table.relation(name)
	if !ok {
		return fmt.Errorf("table %s declares no relation %q", rec.table.Name, name)
	}

	var sql string
	var args []interface{}
	switch spec.Kind {
	case form.RelationOneToMany, form.RelationOneToOne:
		sql = fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", spec.Table.Name, spec.ForeignKey)
		args = []interface{}{rec.PrimaryKey()}
	case form.RelationManyToOne:
		fk := rec.Get(spec.ForeignKey)
		if fk == nil {
			rec.setLoaded(name, nil)
			return nil
		}
		sql = fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", spec.Table.Name, spec.Table.PrimaryKey)
		args = []interface{}{fk}
	case form.RelationManyToMany:
		sql = fmt.Sprintf(
			"SELECT r.* FROM %s r JOIN %s p ON p.%s = r.%s WHERE p.%s = $1",
			spec.Table.Name, spec.Pivot, spec.PivotRelated, spec.Table.PrimaryKey, spec.PivotLocal,
		)
		args = []interface{}{rec.PrimaryKey()}
	}

	rows, err := s.queryRows(ctx, sql, args...)
	if err != nil {
		return mapDatabaseError(err, spec.Table.Name, "SELECT")
	}
	rec.setLoaded(name, rows)
	return nil
}

// NewRecord returns an empty, unsaved record of the resource table.
func (s *Store) NewRecord() form.Record {
	return &Record{table: s.table, store: s, values: make(map[string]interface{})}
}

// Save inserts or updates the record on its own table. Generated SQL lists
// columns in sorted order so statements are deterministic.
func (s *Store) Save(ctx context.Context, rec form.Record) error {
	pr, err := ownRecord(rec)
	if err != nil {
		return err
	}
	if pr.exists {
		return s.update(ctx, pr)
	}
	return s.insert(ctx, pr)
}

func (s *Store) insert(ctx context.Context, rec *Record) error {
	if rec.PrimaryKey() == nil {
		rec.values[rec.table.PrimaryKey] = uuid.NewString()
	}

	columns := sortedColumns(rec.values)
	placeholders := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = rec.values[col]
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		rec.table.Name,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	rows, err := s.queryRows(ctx, sql, args...)
	if err != nil {
		return mapDatabaseError(err, rec.table.Name, "INSERT")
	}
	if len(rows) == 0 {
		return fmt.Errorf("INSERT into %s returned no rows", rec.table.Name)
	}

	rec.values = rows[0]
	rec.exists = true
	rec.dirty = nil
	return nil
}

func (s *Store) update(ctx context.Context, rec *Record) error {
	if len(rec.dirty) == 0 {
		return nil
	}

	columns := make([]string, 0, len(rec.dirty))
	for col := range rec.dirty {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	setClauses := make([]string, len(columns))
	args := make([]interface{}, 0, len(columns)+1)
	for i, col := range columns {
		setClauses[i] = fmt.Sprintf("%s = $%d", col, i+1)
		args = append(args, rec.values[col])
	}
	args = append(args, rec.PrimaryKey())

	sql := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = $%d",
		rec.table.Name,
		strings.Join(setClauses, ", "),
		rec.table.PrimaryKey,
		len(columns)+1,
	)

	if _, err := s.db(ctx).Exec(ctx, sql, args...); err != nil {
		return mapDatabaseError(err, rec.table.Name, "UPDATE")
	}
	rec.dirty = nil
	return nil
}

// Delete soft-deletes when the record's table supports it, otherwise removes
// the row.
func (s *Store) Delete(ctx context.Context, rec form.Record) error {
	pr, err := ownRecord(rec)
	if err != nil {
		return err
	}
	if pr.PrimaryKey() == nil {
		return nil
	}
	if pr.table.SoftDeletes {
		sql := fmt.Sprintf(
			"UPDATE %s SET %s = now() WHERE %s = $1",
			pr.table.Name, deletedAtColumn, pr.table.PrimaryKey,
		)
		if _, err := s.db(ctx).Exec(ctx, sql, pr.PrimaryKey()); err != nil {
			return mapDatabaseError(err, pr.table.Name, "UPDATE")
		}
		return nil
	}
	return s.ForceDelete(ctx, rec)
}

// ForceDelete removes the row permanently.
func (s *Store) ForceDelete(ctx context.Context, rec form.Record) error {
	pr, err := ownRecord(rec)
	if err != nil {
		return err
	}
	if pr.PrimaryKey() == nil {
		return nil
	}
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", pr.table.Name, pr.table.PrimaryKey)
	if _, err := s.db(ctx).Exec(ctx, sql, pr.PrimaryKey()); err != nil {
		return mapDatabaseError(err, pr.table.Name, "DELETE")
	}
	return nil
}

// RunAtomically executes fn inside one transaction. The transaction rides on
// the context handed to fn, so store calls made with it join the same
// transaction.
func (s *Store) RunAtomically(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		// Already inside a transaction; join it.
		return fn(ctx)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Query runs an arbitrary read statement and returns rows as column→value
// maps, joining the transaction on ctx when present.
func (s *Store) Query(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := s.queryRows(ctx, sql, args...)
	if err != nil {
		return nil, mapDatabaseError(err, s.table.Name, "SELECT")
	}
	return rows, nil
}

// ============================================================
// Row scanning
// ============================================================

func (s *Store) queryRows(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := s.db(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// scanRows converts pgx rows into column→value maps.
func scanRows(rows pgx.Rows) ([]map[string]interface{}, error) {
	var result []map[string]interface{}
	columns := rows.FieldDescriptions()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col.Name] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func ownRecord(rec form.Record) (*Record, error) {
	pr, ok := rec.(*Record)
	if !ok {
		return nil, fmt.Errorf("pgstore cannot persist foreign record type %T", rec)
	}
	return pr, nil
}

func sortedColumns(values map[string]interface{}) []string {
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}
