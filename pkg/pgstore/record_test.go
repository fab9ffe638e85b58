package pgstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aggutenbergagency/open-admin/pkg/form"
)

func testTable() *Table {
	tags := &Table{Name: "tags", PrimaryKey: "id"}
	comments := &Table{Name: "comments", PrimaryKey: "id"}
	authors := &Table{Name: "authors", PrimaryKey: "id"}
	metas := &Table{Name: "metas", PrimaryKey: "id"}

	return &Table{
		Name:        "posts",
		PrimaryKey:  "id",
		SoftDeletes: true,
		Relations: map[string]RelationSpec{
			"comments": {Kind: form.RelationOneToMany, Table: comments, ForeignKey: "post_id"},
			"author":   {Kind: form.RelationManyToOne, Table: authors, ForeignKey: "author_id"},
			"meta":     {Kind: form.RelationOneToOne, Table: metas, ForeignKey: "post_id"},
			"tags": {
				Kind: form.RelationManyToMany, Table: tags,
				Pivot: "post_tag", PivotLocal: "post_id", PivotRelated: "tag_id",
			},
		},
	}
}

func TestRecord_SetMarksDirty(t *testing.T) {
	rec := &Record{table: testTable()}

	if rec.Get("title") != nil {
		t.Error("Expected nil for unset column")
	}

	rec.Set("title", "Hello")
	if rec.Get("title") != "Hello" {
		t.Errorf("Expected Hello, got %v", rec.Get("title"))
	}
	if !rec.dirty["title"] {
		t.Error("Expected title marked dirty")
	}
	if rec.dirty["id"] {
		t.Error("Untouched columns must stay clean")
	}
}

func TestRecord_PrimaryKey(t *testing.T) {
	rec := &Record{table: testTable(), values: map[string]interface{}{"id": "abc"}}

	if rec.PrimaryKeyName() != "id" {
		t.Errorf("Expected pk name id, got %s", rec.PrimaryKeyName())
	}
	if rec.PrimaryKey() != "abc" {
		t.Errorf("Expected pk abc, got %v", rec.PrimaryKey())
	}

	fresh := &Record{table: testTable(), values: map[string]interface{}{}}
	if fresh.PrimaryKey() != nil {
		t.Error("New record must report nil pk")
	}
}

func TestRecord_RelationClassification(t *testing.T) {
	rec := &Record{table: testTable(), values: map[string]interface{}{"id": "1"}}

	rel, ok := rec.Relation("meta")
	if !ok || rel.Kind() != form.RelationOneToOne {
		t.Fatalf("Expected one-to-one handle, got %v", rel)
	}
	if _, isOne := rel.(form.OneToOne); !isOne {
		t.Error("Expected form.OneToOne")
	}
	if _, isManyToOne := rel.(form.ManyToOne); isManyToOne {
		t.Error("A one-to-one handle must not satisfy the belongs-to variant")
	}

	rel, _ = rec.Relation("author")
	if _, isManyToOne := rel.(form.ManyToOne); !isManyToOne {
		t.Error("Expected form.ManyToOne")
	}

	rel, _ = rec.Relation("comments")
	if _, isMany := rel.(form.OneToMany); !isMany {
		t.Error("Expected form.OneToMany")
	}
	if rel.Related().PrimaryKeyName() != "id" {
		t.Errorf("Expected prototype with related pk, got %s", rel.Related().PrimaryKeyName())
	}

	rel, _ = rec.Relation("tags")
	if _, isM2M := rel.(form.ManyToMany); !isM2M {
		t.Error("Expected form.ManyToMany")
	}

	if _, ok := rec.Relation("ghost"); ok {
		t.Error("Undeclared relation must report false")
	}
}

func TestRecord_SoftDeleteState(t *testing.T) {
	rec := &Record{table: testTable(), values: map[string]interface{}{"id": "1"}}
	if !rec.SoftDeletes() {
		t.Error("Expected soft-delete capability from the table")
	}
	if rec.Trashed() {
		t.Error("Live record must not report trashed")
	}

	rec.values[deletedAtColumn] = time.Now()
	if !rec.Trashed() {
		t.Error("Expected trashed once deleted_at set")
	}

	hard := &Record{table: &Table{Name: "tags", PrimaryKey: "id"}}
	if hard.SoftDeletes() || hard.Trashed() {
		t.Error("Table without the convention must report neither")
	}
}

func TestRecord_MoveRequiresOrderColumn(t *testing.T) {
	rec := &Record{table: &Table{Name: "posts", PrimaryKey: "id"}}

	err := rec.MoveUp(context.Background())
	if err == nil || !strings.Contains(err.Error(), "no order column") {
		t.Errorf("Expected order column error, got %v", err)
	}
	if err := rec.MoveDown(context.Background()); err == nil {
		t.Error("Expected order column error")
	}
}

func TestOwnRecord_RejectsForeignTypes(t *testing.T) {
	if _, err := ownRecord(&Record{table: testTable()}); err != nil {
		t.Errorf("Expected own record accepted, got %v", err)
	}
	if _, err := ownRecord(foreignRecord{}); err == nil {
		t.Error("Expected foreign record rejected")
	}
}

type foreignRecord struct{}

func (foreignRecord) Get(string) interface{} { return nil }
func (foreignRecord) Set(string, interface{}) {}
func (foreignRecord) PrimaryKeyName() string { return "id" }
func (foreignRecord) PrimaryKey() interface{} { return nil }
func (foreignRecord) Relation(string) (form.Relation, bool) { return nil, false }

func TestSortedColumns(t *testing.T) {
	columns := sortedColumns(map[string]interface{}{"title": 1, "id": 2, "body": 3})
	if len(columns) != 3 || columns[0] != "body" || columns[1] != "id" || columns[2] != "title" {
		t.Errorf("Expected sorted column order, got %v", columns)
	}
}
