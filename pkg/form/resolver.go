package form

import (
	"fmt"
	"strings"
)

// maxRelationDepth bounds nested-form recursion. Acyclic record graphs stay
// far below it; hitting the bound means a relation cycle in caller setup.
const maxRelationDepth = 16

// RelationMap is the ordered, de-duplicated set of relation names a form
// touches. Nested sub-relations appear dotted ("comments.tags").
type RelationMap []string

// Has reports whether name is in the map.
func (m RelationMap) Has(name string) bool {
	for _, n := range m {
		if n == name {
			return true
		}
	}
	return false
}

// TopLevel returns only the non-nested relation names, preserving order.
func (m RelationMap) TopLevel() []string {
	var out []string
	for _, n := range m {
		if !strings.Contains(n, ".") {
			out = append(out, n)
		}
	}
	return out
}

func (m RelationMap) add(name string) RelationMap {
	if m.Has(name) {
		return m
	}
	return append(m, name)
}

// ResolveRelations walks the fields' column paths against the record's
// declared relations and returns the flattened relation name list, first-seen
// order, no duplicates. A dotted column whose first segment is not a relation
// accessor is plain nested storage and is skipped.
func ResolveRelations(rec Record, fields []Field) (RelationMap, error) {
	return resolveRelations(rec, fields, "", 0)
}

func resolveRelations(rec Record, fields []Field, prefix string, depth int) (RelationMap, error) {
	if depth > maxRelationDepth {
		return nil, fmt.Errorf("relation nesting exceeds %d levels; relation graph has a cycle", maxRelationDepth)
	}

	var out RelationMap
	for _, f := range fields {
		for _, path := range f.Column().Paths() {
			candidate := path
			if i := strings.Index(path, "."); i >= 0 {
				candidate = path[:i]
			}

			rel, ok := rec.Relation(candidate)
			if !ok {
				continue
			}
			out = out.add(prefix + candidate)

			// Has-many relations with a nested form may declare
			// sub-relations of their own.
			nested, isNested := f.(NestedField)
			if !isNested || rel.Kind() != RelationOneToMany {
				continue
			}
			sub, err := resolveRelations(rel.Related(), nested.SubFields(), prefix+candidate+".", depth+1)
			if err != nil {
				return nil, err
			}
			for _, name := range sub {
				out = out.add(name)
			}
		}
	}
	return out, nil
}
