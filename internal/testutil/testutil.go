// Package testutil provides shared test helpers for building throwaway
// flashcard collection databases.
package testutil

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/hanmine/hanmine/internal/database"
)

const collectionSchema = `
CREATE TABLE col (
	id INTEGER PRIMARY KEY,
	decks TEXT NOT NULL,
	models TEXT NOT NULL
);
CREATE TABLE notes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	mid INTEGER NOT NULL,
	flds TEXT NOT NULL
);
CREATE TABLE cards (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	nid INTEGER NOT NULL,
	did INTEGER NOT NULL,
	reps INTEGER NOT NULL DEFAULT 0,
	lapses INTEGER NOT NULL DEFAULT 0,
	data TEXT NOT NULL DEFAULT ''
);
INSERT INTO col (id, decks, models) VALUES (1, '{}', '{}');
`

// CollectionBuilder assembles a flashcard collection database for tests:
// decks and models go into the col row's JSON documents, notes and cards
// into their tables.
type CollectionBuilder struct {
	t      *testing.T
	db     *sqlx.DB
	decks  map[string]deckDoc
	models map[string]modelDoc
	nextID int64
}

type deckDoc struct {
	Name string `json:"name"`
}

type modelField struct {
	Name string `json:"name"`
	Ord  int    `json:"ord"`
}

type modelDoc struct {
	Name string       `json:"name"`
	Flds []modelField `json:"flds"`
}

// NewCollection opens a fresh collection database backed by a temporary
// file and applies the schema. The handle is closed when the test ends.
func NewCollection(t *testing.T) (*CollectionBuilder, *sqlx.DB) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "collection.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	db.MustExec(collectionSchema)
	return &CollectionBuilder{
		t:      t,
		db:     db,
		decks:  map[string]deckDoc{},
		models: map[string]modelDoc{},
		nextID: 1,
	}, db
}

// StorePath returns a fresh file path for an item-store database.
func StorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "items.sqlite")
}

// AddDeck registers a deck and returns its id.
func (b *CollectionBuilder) AddDeck(name string) int64 {
	b.t.Helper()
	id := b.nextID
	b.nextID++
	b.decks[fmt.Sprintf("%d", id)] = deckDoc{Name: name}
	b.flushCol()
	return id
}

// AddModel registers a note type with the given ordered field names and
// returns its id.
func (b *CollectionBuilder) AddModel(name string, fields ...string) int64 {
	b.t.Helper()
	id := b.nextID
	b.nextID++
	flds := make([]modelField, 0, len(fields))
	for i, f := range fields {
		flds = append(flds, modelField{Name: f, Ord: i})
	}
	b.models[fmt.Sprintf("%d", id)] = modelDoc{Name: name, Flds: flds}
	b.flushCol()
	return id
}

// AddNote inserts a note with one card in the given deck and returns the
// note id and card id.
func (b *CollectionBuilder) AddNote(modelID, deckID int64, fields ...string) (int64, int64) {
	b.t.Helper()

	flds := ""
	for i, f := range fields {
		if i > 0 {
			flds += "\x1f"
		}
		flds += f
	}
	res := b.db.MustExec("INSERT INTO notes (mid, flds) VALUES (?, ?)", modelID, flds)
	noteID, err := res.LastInsertId()
	require.NoError(b.t, err)

	res = b.db.MustExec("INSERT INTO cards (nid, did) VALUES (?, ?)", noteID, deckID)
	cardID, err := res.LastInsertId()
	require.NoError(b.t, err)
	return noteID, cardID
}

// SetCardStats overwrites a card's review counters.
func (b *CollectionBuilder) SetCardStats(cardID int64, reps, lapses int) {
	b.t.Helper()
	b.db.MustExec("UPDATE cards SET reps = ?, lapses = ? WHERE id = ?", reps, lapses, cardID)
}

// MarkCard writes a card's marking tag.
func (b *CollectionBuilder) MarkCard(cardID int64, marking string) {
	b.t.Helper()
	b.db.MustExec("UPDATE cards SET data = ? WHERE id = ?", marking, cardID)
}

func (b *CollectionBuilder) flushCol() {
	b.t.Helper()

	decks, err := json.Marshal(b.decks)
	require.NoError(b.t, err)
	models, err := json.Marshal(b.models)
	require.NoError(b.t, err)
	b.db.MustExec("UPDATE col SET decks = ?, models = ?", string(decks), string(models))
}
