package introspect

import (
	"fmt"
	"strings"
)

// skipColumns are bookkeeping columns never edited through a form.
var skipColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"deleted_at": true,
}

// GenerateFormFields emits Go source declaring one form constructor per
// table, with one field declaration per editable column. The output is a
// starting point: relations other than belongs-to foreign keys must be wired
// by hand.
func GenerateFormFields(pkg string, tables []TableInfo) (string, error) {
	if pkg == "" {
		pkg = "admin"
	}

	var b strings.Builder
	b.WriteString("// Code generated by openadmin generate; review and edit before use.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", pkg)
	b.WriteString("import \"github.com/aggutenbergagency/open-admin/pkg/form\"\n")

	for _, table := range tables {
		fmt.Fprintf(&b, "\nfunc new%sForm(store form.Store) *form.Form {\n", exportName(table.Name))
		fmt.Fprintf(&b, "\treturn form.New(store, %q).Fields(\n", "/"+table.Name)
		for _, col := range table.Columns {
			if col.PrimaryKey || skipColumns[col.Name] {
				continue
			}
			decl := fieldDecl(col)
			if col.ForeignKey != nil {
				decl += fmt.Sprintf(", // belongs-to %s via %s", col.ForeignKey.ReferencedTable, col.Name)
			} else {
				decl += ","
			}
			fmt.Fprintf(&b, "\t\t%s\n", decl)
		}
		b.WriteString("\t)\n}\n")
	}

	return b.String(), nil
}

// fieldDecl maps one column to a form field constructor call.
func fieldDecl(col ColumnInfo) string {
	decl := fmt.Sprintf("%s(%q)", constructorFor(col.Type), col.Name)
	if !col.Nullable && constructorFor(col.Type) != "form.NewSwitch" {
		decl += ".Required()"
	}
	return decl
}

func constructorFor(dataType string) string {
	switch strings.ToLower(dataType) {
	case "boolean":
		return "form.NewSwitch"
	case "smallint", "integer", "bigint", "numeric", "decimal", "real", "double precision":
		return "form.NewNumber"
	case "timestamp without time zone", "timestamp with time zone", "date":
		return "form.NewDatetime"
	default:
		return "form.NewText"
	}
}

// exportName converts a snake_case table name to an exported Go identifier.
func exportName(table string) string {
	parts := strings.Split(table, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}
