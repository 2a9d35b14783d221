// Package collection reads and writes the host flashcard application's
// database: decks, models, notes, and cards with their review counters.
// It is the only package that touches that schema.
package collection

import "strings"

// FieldSeparator joins a note's field values in the notes.flds column.
const FieldSeparator = "\x1f"

// MarkingKnown is the card marking that forces a word to count as fully
// known regardless of its review counters.
const MarkingKnown = "known"

// A card marked known counts as this many net correct repetitions.
const knownCorrect = 10

// Deck is a named card container in the collection.
type Deck struct {
	ID   int64
	Name string
}

// Model is a note type: an ordered list of field names.
type Model struct {
	ID     int64
	Name   string
	Fields []string
}

// Note is one reviewable note with its field values split out.
type Note struct {
	ID      int64
	ModelID int64
	Fields  []string
}

// Card is one reviewable card. Marking is the free-text tag stored in the
// card's data column.
type Card struct {
	ID      int64  `db:"id"`
	NoteID  int64  `db:"nid"`
	DeckID  int64  `db:"did"`
	Reps    int    `db:"reps"`
	Lapses  int    `db:"lapses"`
	Marking string `db:"data"`
}

// Correct returns the card's net correct repetitions: reps minus lapses,
// or the known ceiling when the card carries the known marking.
func (c Card) Correct() int {
	if c.Marking == MarkingKnown {
		return knownCorrect
	}
	return c.Reps - c.Lapses
}

// KnownCorrect returns the correct-count assigned to cards the user declared
// known, used for cards living in known-vocabulary decks.
func KnownCorrect() int {
	return knownCorrect
}

func joinFields(fields []string) string {
	return strings.Join(fields, FieldSeparator)
}

func splitFields(flds string) []string {
	return strings.Split(flds, FieldSeparator)
}
