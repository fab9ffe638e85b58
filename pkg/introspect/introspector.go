// Package introspect reads an existing database schema and emits the
// boilerplate form field declarations for it. It is a development-time
// collaborator of the form engine: the generated code is reviewed and edited,
// never regenerated over.
package introspect

import (
	"context"
	"fmt"
	"strings"
)

// ColumnInfo represents a column.
type ColumnInfo struct {
	Name       string
	Type       string // DB-specific type (e.g. "character varying", "integer")
	Nullable   bool
	PrimaryKey bool
	Unique     bool
	DefaultVal *string
	ForeignKey *ForeignKeyInfo
}

// ForeignKeyInfo represents a foreign key constraint.
type ForeignKeyInfo struct {
	ReferencedTable  string
	ReferencedColumn string
	ConstraintName   string
}

// TableInfo represents a table structure.
type TableInfo struct {
	Name    string
	Columns []ColumnInfo
}

// Introspector is the interface all database engines must implement.
type Introspector interface {
	// Detect confirms connectivity against the expected engine.
	Detect(ctx context.Context) (bool, error)

	// ListTables returns all user-defined tables.
	ListTables(ctx context.Context) ([]string, error)

	// InspectTable returns detailed structure.
	InspectTable(ctx context.Context, tableName string) (*TableInfo, error)

	// GetAllTables returns the complete schema.
	GetAllTables(ctx context.Context) ([]TableInfo, error)

	// Close closes the connection.
	Close() error
}

// NewIntrospector creates the right introspector for a connection string.
// Only PostgreSQL is supported today.
func NewIntrospector(ctx context.Context, connStr string) (Introspector, error) {
	normalized := strings.TrimSpace(connStr)
	if normalized == "" {
		return nil, fmt.Errorf("connection string is required")
	}
	if !isPostgres(normalized) {
		return nil, fmt.Errorf("unsupported database connection scheme")
	}
	return newPostgresIntrospector(ctx, normalized)
}

func isPostgres(connStr string) bool {
	lower := strings.ToLower(connStr)
	if strings.HasPrefix(lower, "postgresql://") || strings.HasPrefix(lower, "postgres://") {
		return true
	}
	// key=value DSN form
	return strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=")
}
