package pgstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ============================================================
// CONSTRAINT ERROR TYPES
// ============================================================

// UniqueConstraintError reports a unique violation on a column.
type UniqueConstraintError struct {
	Table string
	Field string
}

func (e *UniqueConstraintError) Error() string {
	return fmt.Sprintf("unique constraint violation on %s.%s: value already exists", e.Table, e.Field)
}

// ForeignKeyError reports a reference to a missing row.
type ForeignKeyError struct {
	Table           string
	Field           string
	ReferencedTable string
}

func (e *ForeignKeyError) Error() string {
	return fmt.Sprintf(
		"foreign key violation on %s.%s: referenced row in %s does not exist",
		e.Table, e.Field, e.ReferencedTable,
	)
}

// NotNullError reports a missing required column value.
type NotNullError struct {
	Table string
	Field string
}

func (e *NotNullError) Error() string {
	return fmt.Sprintf("%s.%s may not be null", e.Table, e.Field)
}

// CheckConstraintError reports a CHECK constraint failure.
type CheckConstraintError struct {
	Table      string
	Constraint string
}

func (e *CheckConstraintError) Error() string {
	return fmt.Sprintf("value on %s violates check constraint %s", e.Table, e.Constraint)
}

// UndefinedTableError reports a write against a missing table.
type UndefinedTableError struct {
	Table string
}

func (e *UndefinedTableError) Error() string {
	return fmt.Sprintf("table %s does not exist; run migrations first", e.Table)
}

// UndefinedColumnError reports a write against a missing column.
type UndefinedColumnError struct {
	Table string
	Field string
}

func (e *UndefinedColumnError) Error() string {
	return fmt.Sprintf("column %s does not exist on %s", e.Field, e.Table)
}

// ============================================================
// MAPPING
// ============================================================

// mapDatabaseError converts PostgreSQL errors into the typed errors above.
// Non-Postgres errors are wrapped with the failing operation.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
func mapDatabaseError(err error, table string, operation string) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return fmt.Errorf("%s on %s failed: %w", operation, table, err)
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		return &UniqueConstraintError{Table: table, Field: fieldFromDetail(pgErr.Detail)}
	case "23503": // foreign_key_violation
		return &ForeignKeyError{
			Table:           table,
			Field:           fieldFromDetail(pgErr.Detail),
			ReferencedTable: referencedTable(pgErr.ConstraintName),
		}
	case "23502": // not_null_violation
		field := pgErr.ColumnName
		if field == "" {
			field = quotedField(pgErr.Message)
		}
		return &NotNullError{Table: table, Field: field}
	case "23514": // check_violation
		return &CheckConstraintError{Table: table, Constraint: pgErr.ConstraintName}
	case "42P01": // undefined_table
		return &UndefinedTableError{Table: table}
	case "42703": // undefined_column
		return &UndefinedColumnError{Table: table, Field: quotedField(pgErr.Message)}
	default:
		return fmt.Errorf("%s on %s failed: %s (code: %s)", operation, table, pgErr.Message, pgErr.Code)
	}
}

// fieldFromDetail extracts the column name from a constraint detail such as
// "Key (email)=(a@b.com) already exists.".
func fieldFromDetail(detail string) string {
	start := strings.Index(detail, "(")
	end := strings.Index(detail, ")")
	if start >= 0 && end > start {
		return detail[start+1 : end]
	}
	return ""
}

// referencedTable extracts the target table from a constraint named with the
// common fk_{table}_{column}_{referenced} convention.
func referencedTable(constraint string) string {
	parts := strings.Split(constraint, "_")
	if len(parts) >= 4 && parts[0] == "fk" {
		return parts[len(parts)-1]
	}
	return "referenced table"
}

// quotedField extracts the first double-quoted identifier from a message
// such as `column "age" of relation "users" does not exist`.
func quotedField(message string) string {
	start := strings.Index(message, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(message[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return message[start+1 : start+1+end]
}
