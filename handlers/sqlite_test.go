package handlers

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabmerge/tabmerge/core"
)

func TestSQLiteRoundTrip(t *testing.T) {
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "out.db")
	handler := NewSQLite()

	batch := core.NewBatch(core.Header{"id", "city"}, []core.Row{
		{int64(1), "London"},
		{int64(2), nil},
	})
	r.NoError(handler.Write(batch, path, core.Options{}))

	stream, err := handler.Read(path, core.Options{})
	r.NoError(err)

	batches := drain(t, stream)
	r.Len(batches, 1)
	// reading tags rows with their table of origin
	r.Equal(core.Header{"id", "city", sheetNameColumn}, batches[0].Header)
	r.Equal([]core.Row{
		{int64(1), "London", "data"},
		{int64(2), nil, "data"},
	}, batches[0].Rows)
}

func TestSQLiteWriteAppend(t *testing.T) {
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "out.db")
	handler := NewSQLite()

	first := core.NewBatch(core.Header{"v"}, []core.Row{{int64(1)}})
	r.NoError(handler.Write(first, path, core.Options{core.OptTable: "rows"}))

	second := core.NewBatch(core.Header{"v"}, []core.Row{{int64(2)}})
	r.NoError(handler.Write(second, path, core.Options{
		core.OptTable:  "rows",
		core.OptAppend: true,
	}))

	stream, err := handler.Read(path, core.Options{core.OptTable: "rows"})
	r.NoError(err)

	batches := drain(t, stream)
	r.Equal([]any{int64(1), int64(2)}, batches[0].Column("v"))
}

func TestSQLiteWriteTruncatesWithoutAppend(t *testing.T) {
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "out.db")
	handler := NewSQLite()

	r.NoError(handler.Write(core.NewBatch(core.Header{"v"}, []core.Row{{int64(1)}}), path, core.Options{}))
	r.NoError(handler.Write(core.NewBatch(core.Header{"v"}, []core.Row{{int64(2)}}), path, core.Options{}))

	stream, err := handler.Read(path, core.Options{})
	r.NoError(err)

	batches := drain(t, stream)
	r.Equal([]any{int64(2)}, batches[0].Column("v"))
}

func TestSQLiteReadMergesTables(t *testing.T) {
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "in.db")

	db, err := sql.Open("sqlite", path)
	r.NoError(err)
	for _, stmt := range []string{
		"CREATE TABLE people (id INTEGER)",
		"INSERT INTO people VALUES (1)",
		"CREATE TABLE places (city TEXT)",
		"INSERT INTO places VALUES ('London')",
	} {
		_, err = db.Exec(stmt)
		r.NoError(err)
	}
	r.NoError(db.Close())

	stream, err := NewSQLite().Read(path, core.Options{})
	r.NoError(err)

	batches := drain(t, stream)
	r.Len(batches, 1)
	// tables are read in name order and tagged like sheets
	r.Equal([]any{"people", "places"}, batches[0].Column(sheetNameColumn))
	r.Equal([]any{int64(1), nil}, batches[0].Column("id"))
	r.Equal([]any{nil, "London"}, batches[0].Column("city"))
}

func TestSQLiteReadMissingTable(t *testing.T) {
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "in.db")
	handler := NewSQLite()
	r.NoError(handler.Write(core.NewBatch(core.Header{"v"}, []core.Row{{int64(1)}}), path, core.Options{}))

	_, err := handler.Read(path, core.Options{core.OptTable: "nope"})
	r.Error(err)
}

func TestSQLiteReadEmptyDatabase(t *testing.T) {
	r := require.New(t)

	path := filepath.Join(t.TempDir(), "in.db")
	db, err := sql.Open("sqlite", path)
	r.NoError(err)
	// force file creation
	_, err = db.Exec("PRAGMA user_version = 1")
	r.NoError(err)
	r.NoError(db.Close())

	_, err = NewSQLite().Read(path, core.Options{})
	r.ErrorIs(err, core.ErrNoTabularData)
}
