package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/jmoiron/sqlx"
)

// Reader is the read side of the collection used by indexing and search.
type Reader interface {
	Decks(ctx context.Context) ([]Deck, error)
	DeckIDByName(ctx context.Context, name string) (int64, bool, error)
	Models(ctx context.Context) (map[int64]Model, error)
	NotesInDeck(ctx context.Context, deckID int64) ([]Note, error)
	CardsInDecks(ctx context.Context, deckIDs []int64) ([]Card, error)
	CardsForNote(ctx context.Context, noteID int64) ([]Card, error)
}

// Writer is the write side used when promoting search results.
type Writer interface {
	CreateNote(ctx context.Context, deckID, modelID int64, fields []string) (int64, error)
	MarkCardsForNote(ctx context.Context, noteID int64, marking string) error
}

// DBCollection implements Reader and Writer over the collection's SQLite
// database. The decks and models live as JSON documents in the single col
// row; notes and cards are plain tables.
type DBCollection struct {
	db *sqlx.DB
}

// NewDBCollection creates a DBCollection over db.
func NewDBCollection(db *sqlx.DB) *DBCollection {
	return &DBCollection{db: db}
}

// DB exposes the underlying handle so the item store can attach its
// database beside the collection.
func (c *DBCollection) DB() *sqlx.DB {
	return c.db
}

type deckInfo struct {
	Name string `json:"name"`
}

type modelField struct {
	Name string `json:"name"`
	Ord  int    `json:"ord"`
}

type modelInfo struct {
	Name   string       `json:"name"`
	Fields []modelField `json:"flds"`
}

// Decks returns every deck in the collection, ordered by name.
func (c *DBCollection) Decks(ctx context.Context) ([]Deck, error) {
	raw, err := c.decksJSON(ctx)
	if err != nil {
		return nil, err
	}

	decks := make([]Deck, 0, len(raw))
	for id, info := range raw {
		did, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed deck id %q > %w", id, err)
		}
		decks = append(decks, Deck{ID: did, Name: info.Name})
	}
	sort.Slice(decks, func(i, j int) bool { return decks[i].Name < decks[j].Name })
	return decks, nil
}

// DeckIDByName resolves a configured deck name. A missing deck is reported
// through the boolean, not as an error: callers treat it as an empty
// contribution.
func (c *DBCollection) DeckIDByName(ctx context.Context, name string) (int64, bool, error) {
	decks, err := c.Decks(ctx)
	if err != nil {
		return 0, false, err
	}
	for _, d := range decks {
		if d.Name == name {
			return d.ID, true, nil
		}
	}
	return 0, false, nil
}

func (c *DBCollection) decksJSON(ctx context.Context) (map[string]deckInfo, error) {
	var decksDoc string
	if err := c.db.GetContext(ctx, &decksDoc, "SELECT decks FROM col"); err != nil {
		return nil, fmt.Errorf("db.GetContext(col.decks) > %w", err)
	}
	var raw map[string]deckInfo
	if err := json.Unmarshal([]byte(decksDoc), &raw); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(col.decks) > %w", err)
	}
	return raw, nil
}

// Models returns the collection's note types keyed by model id, each with
// its field names in ordinal order.
func (c *DBCollection) Models(ctx context.Context) (map[int64]Model, error) {
	var modelsDoc string
	if err := c.db.GetContext(ctx, &modelsDoc, "SELECT models FROM col"); err != nil {
		return nil, fmt.Errorf("db.GetContext(col.models) > %w", err)
	}
	var raw map[string]modelInfo
	if err := json.Unmarshal([]byte(modelsDoc), &raw); err != nil {
		return nil, fmt.Errorf("json.Unmarshal(col.models) > %w", err)
	}

	models := make(map[int64]Model, len(raw))
	for id, info := range raw {
		mid, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed model id %q > %w", id, err)
		}
		fields := append([]modelField(nil), info.Fields...)
		sort.Slice(fields, func(i, j int) bool { return fields[i].Ord < fields[j].Ord })
		names := make([]string, 0, len(fields))
		for _, f := range fields {
			names = append(names, f.Name)
		}
		models[mid] = Model{ID: mid, Name: info.Name, Fields: names}
	}
	return models, nil
}

type noteRow struct {
	ID      int64  `db:"id"`
	ModelID int64  `db:"mid"`
	Flds    string `db:"flds"`
}

// NotesInDeck returns the notes that have at least one card in the deck,
// ordered by note id.
func (c *DBCollection) NotesInDeck(ctx context.Context, deckID int64) ([]Note, error) {
	var rows []noteRow
	err := c.db.SelectContext(ctx, &rows,
		`SELECT DISTINCT notes.id, notes.mid, notes.flds FROM notes
		JOIN cards ON cards.nid = notes.id
		WHERE cards.did = ? ORDER BY notes.id`, deckID)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(notes in deck) > %w", err)
	}

	notes := make([]Note, 0, len(rows))
	for _, row := range rows {
		notes = append(notes, Note{ID: row.ID, ModelID: row.ModelID, Fields: splitFields(row.Flds)})
	}
	return notes, nil
}

// CardsInDecks returns all cards in the given decks, ordered by card id.
// An empty deck list yields no cards.
func (c *DBCollection) CardsInDecks(ctx context.Context, deckIDs []int64) ([]Card, error) {
	if len(deckIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		"SELECT id, nid, did, reps, lapses, data FROM cards WHERE did IN (?) ORDER BY id", deckIDs)
	if err != nil {
		return nil, fmt.Errorf("sqlx.In(cards in decks) > %w", err)
	}
	var cards []Card
	if err := c.db.SelectContext(ctx, &cards, c.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext(cards in decks) > %w", err)
	}
	return cards, nil
}

// CardsForNote returns all cards of one note, ordered by card id.
func (c *DBCollection) CardsForNote(ctx context.Context, noteID int64) ([]Card, error) {
	var cards []Card
	err := c.db.SelectContext(ctx, &cards,
		"SELECT id, nid, did, reps, lapses, data FROM cards WHERE nid = ? ORDER BY id", noteID)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(cards for note) > %w", err)
	}
	return cards, nil
}

// CreateNote inserts a note and a single unreviewed card for it in the
// given deck, returning the new note id.
func (c *DBCollection) CreateNote(ctx context.Context, deckID, modelID int64, fields []string) (int64, error) {
	result, err := c.db.ExecContext(ctx,
		"INSERT INTO notes (mid, flds) VALUES (?, ?)", modelID, joinFields(fields))
	if err != nil {
		return 0, fmt.Errorf("db.ExecContext(insert note) > %w", err)
	}
	noteID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("result.LastInsertId() > %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		"INSERT INTO cards (nid, did, reps, lapses, data) VALUES (?, ?, 0, 0, '')", noteID, deckID)
	if err != nil {
		return 0, fmt.Errorf("db.ExecContext(insert card) > %w", err)
	}
	return noteID, nil
}

// MarkCardsForNote writes the marking tag on every card of the note.
func (c *DBCollection) MarkCardsForNote(ctx context.Context, noteID int64, marking string) error {
	result, err := c.db.ExecContext(ctx,
		"UPDATE cards SET data = ? WHERE nid = ?", marking, noteID)
	if err != nil {
		return fmt.Errorf("db.ExecContext(mark cards) > %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no cards for note %d", noteID)
	}
	return nil
}
