package integration

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/aggutenbergagency/open-admin/pkg/form"
	"github.com/aggutenbergagency/open-admin/pkg/pgstore"
)

// databaseURLEnv names the database the suite runs against. Unit runs stay
// database-free: the whole suite skips when it is unset.
const databaseURLEnv = "OPENADMIN_TEST_DATABASE_URL"

const schema = `
DROP TABLE IF EXISTS post_tag;
DROP TABLE IF EXISTS comments;
DROP TABLE IF EXISTS tags;
DROP TABLE IF EXISTS posts;
DROP TABLE IF EXISTS authors;

CREATE TABLE authors (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL
);

CREATE TABLE posts (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	views BIGINT,
	author_id TEXT REFERENCES authors(id),
	deleted_at TIMESTAMPTZ
);

CREATE TABLE comments (
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	body TEXT
);

CREATE TABLE tags (
	id TEXT PRIMARY KEY,
	name TEXT
);

CREATE TABLE post_tag (
	post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	tag_id TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (post_id, tag_id)
);

INSERT INTO tags (id, name) VALUES ('t1', 'go'), ('t2', 'sql'), ('t3', 'web');
`

func setupTestDB(t *testing.T) (*pgxpool.Pool, context.Context, func()) {
	t.Helper()

	url := os.Getenv(databaseURLEnv)
	if url == "" {
		t.Skipf("set %s to run integration tests", databaseURLEnv)
	}

	ctx := context.Background()
	pool, err := pgstore.Connect(ctx, pgstore.DefaultConfig(url))
	require.NoError(t, err)

	_, err = pool.Exec(ctx, schema)
	require.NoError(t, err)

	return pool, ctx, pool.Close
}

// postTables wires the relation graph the suite edits through forms.
func postTables() *pgstore.Table {
	authors := &pgstore.Table{Name: "authors", PrimaryKey: "id"}
	comments := &pgstore.Table{Name: "comments", PrimaryKey: "id"}
	tags := &pgstore.Table{Name: "tags", PrimaryKey: "id"}

	return &pgstore.Table{
		Name:        "posts",
		PrimaryKey:  "id",
		SoftDeletes: true,
		Relations: map[string]pgstore.RelationSpec{
			"author":   {Kind: form.RelationManyToOne, Table: authors, ForeignKey: "author_id"},
			"comments": {Kind: form.RelationOneToMany, Table: comments, ForeignKey: "post_id"},
			"tags": {
				Kind: form.RelationManyToMany, Table: tags,
				Pivot: "post_tag", PivotLocal: "post_id", PivotRelated: "tag_id",
			},
		},
	}
}

func postForm(pool *pgxpool.Pool) (*form.Form, *pgstore.Store) {
	store := pgstore.New(pool, postTables())
	f := form.New(store, "/admin/posts").Fields(
		form.NewText("title").Required(),
		form.NewNumber("views"),
		form.NewMultiSelect("tags"),
		form.NewHasMany("comments", form.NewText("body")),
		form.NewEmbeds("author", form.NewText("name")),
	)
	return f, store
}
