package itemstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"

	"github.com/hanmine/hanmine/internal/cedict"
	"github.com/hanmine/hanmine/internal/collection"
	"github.com/hanmine/hanmine/internal/segment"
)

// Store owns the item-store database file and runs every operation against
// the collection's connection with that file attached as a secondary
// schema. The collection handle must be the same one the DBCollection was
// built over, capped at a single connection, so the attachment is visible
// to every statement of an operation.
type Store struct {
	db            *sqlx.DB
	col           *collection.DBCollection
	dict          *cedict.Dictionary
	seg           *segment.Segmenter
	path          string
	completedTier cedict.Tier
	entryHashes   map[*cedict.Entry]string
}

// New creates a Store over the collection and the item-store file at path.
// completedTier is the user's self-reported completed acquisition tier;
// words at or below it count as known regardless of review history.
func New(col *collection.DBCollection, dict *cedict.Dictionary, path string, completedTier cedict.Tier) (*Store, error) {
	s := &Store{
		db:            col.DB(),
		col:           col,
		dict:          dict,
		seg:           segment.New(dict),
		path:          path,
		completedTier: completedTier,
		entryHashes:   make(map[*cedict.Entry]string, dict.Len()),
	}

	entries := dict.Entries()
	for i := range entries {
		hash, _, err := ContentHash(entries[i].CanonicalContent())
		if err != nil {
			return nil, fmt.Errorf("itemstore.ContentHash() > %w", err)
		}
		s.entryHashes[&entries[i]] = hash
	}
	return s, nil
}

// EntryHash returns the item hash of a dictionary entry.
func (s *Store) EntryHash(e *cedict.Entry) string {
	return s.entryHashes[e]
}

// attach attaches the item-store file under the secondary schema name.
// Attaching when already attached is logged and treated as already in the
// desired state: operations may be invoked reentrantly or retried.
func (s *Store) attach(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "ATTACH DATABASE ? AS "+schemaName, s.path)
	if err != nil {
		if strings.Contains(err.Error(), "already in use") {
			slog.Info("item store already attached", "path", s.path)
			return nil
		}
		return fmt.Errorf("db.ExecContext(attach item store) > %w", err)
	}
	return nil
}

// detach releases the attachment. Detaching when not attached is logged and
// ignored so an interrupted operation never leaks a failure into the next.
func (s *Store) detach() {
	_, err := s.db.Exec("DETACH DATABASE " + schemaName)
	if err != nil {
		if strings.Contains(err.Error(), "no such database") {
			slog.Info("item store already detached", "path", s.path)
			return
		}
		slog.Error("detaching item store failed", "path", s.path, "error", err)
	}
}

// withStore runs fn with the item store attached and inside a single
// transaction. The attachment is released on every exit path, and the
// transaction commits only when fn succeeds — a failing operation leaves
// both databases untouched.
func (s *Store) withStore(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := s.attach(ctx); err != nil {
		return err
	}
	defer s.detach()

	if _, err := s.db.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("db.ExecContext(begin) > %w", err)
	}
	if err := fn(ctx); err != nil {
		s.rollback(ctx)
		return err
	}
	if _, err := s.db.ExecContext(ctx, "COMMIT"); err != nil {
		s.rollback(ctx)
		return fmt.Errorf("db.ExecContext(commit) > %w", err)
	}
	return nil
}

// rollback aborts the open transaction. The operation may be failing
// because ctx was cancelled, and a transaction left open would wedge the
// pool's single connection for every later operation, so the rollback runs
// on a non-cancellable context.
func (s *Store) rollback(ctx context.Context) {
	if _, err := s.db.ExecContext(context.WithoutCancel(ctx), "ROLLBACK"); err != nil {
		slog.Error("rollback failed", "error", err)
	}
}

// ensureSchema creates missing tables without touching existing data.
func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range ensureStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db.ExecContext(ensure schema) > %w", err)
		}
	}
	return nil
}

// Put upserts an item from its canonical content. Re-inserting identical
// content yields the same hash and leaves the existing row, including its
// aggregates, untouched.
func (s *Store) Put(ctx context.Context, item Item) (string, error) {
	var hash string
	err := s.withStore(ctx, func(ctx context.Context) error {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		var err error
		hash, err = s.putLocked(ctx, item)
		return err
	})
	return hash, err
}

func (s *Store) putLocked(ctx context.Context, item Item) (string, error) {
	if item.Hash == "" {
		return "", fmt.Errorf("item has no hash")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mine.items (hash, type, content, text, pronunciation, meaning, tier)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (hash) DO NOTHING`,
		item.Hash, item.Type, item.Content, item.Text, item.Pronunciation, item.Meaning, item.Tier)
	if err != nil {
		return "", fmt.Errorf("db.ExecContext(insert item) > %w", err)
	}
	return item.Hash, nil
}

// LinkItems records that toHash occurs in fromHash's text at the given rune
// span. At most one link exists per ordered pair; repeated calls keep the
// first recorded span.
func (s *Store) LinkItems(ctx context.Context, link ItemLink) error {
	return s.withStore(ctx, func(ctx context.Context) error {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		return s.linkItemsLocked(ctx, link)
	})
}

func (s *Store) linkItemsLocked(ctx context.Context, link ItemLink) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO mine.item_links (from_hash, to_hash, start_offset, end_offset)
		VALUES (?, ?, ?, ?)`,
		link.FromHash, link.ToHash, link.StartOffset, link.EndOffset)
	if err != nil {
		return fmt.Errorf("db.ExecContext(insert item link) > %w", err)
	}
	return nil
}

// LinkNote records that the item was derived from, or matches, the given
// reviewable note. Idempotent per (hash, note) pair.
func (s *Store) LinkNote(ctx context.Context, hash string, noteID int64) error {
	return s.withStore(ctx, func(ctx context.Context) error {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		return s.linkNoteLocked(ctx, hash, noteID)
	})
}

func (s *Store) linkNoteLocked(ctx context.Context, hash string, noteID int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO mine.note_links (hash, note_id) VALUES (?, ?)", hash, noteID)
	if err != nil {
		return fmt.Errorf("db.ExecContext(insert note link) > %w", err)
	}
	return nil
}

// ItemByHash returns a stored item, or nil when absent.
func (s *Store) ItemByHash(ctx context.Context, hash string) (*Item, error) {
	var item *Item
	err := s.withStore(ctx, func(ctx context.Context) error {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		found, err := s.itemByHashLocked(ctx, hash)
		item = found
		return err
	})
	return item, err
}

func (s *Store) itemByHashLocked(ctx context.Context, hash string) (*Item, error) {
	var items []Item
	err := s.db.SelectContext(ctx, &items, "SELECT * FROM mine.items WHERE hash = ?", hash)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(item by hash) > %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// Initialize destructively rebuilds the item store: it drops and recreates
// every table, inserts all dictionary entries as word items with their
// sub-word links, segments every note of the sentence decks into sentence
// items with word links, recomputes all aggregates, and finishes with an
// incremental update pass over the vocabulary decks.
func (s *Store) Initialize(ctx context.Context, sentenceDecks, activeDecks, knownDecks []string) (UpdateStats, error) {
	var stats UpdateStats
	err := s.withStore(ctx, func(ctx context.Context) error {
		for _, stmt := range dropStatements {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("db.ExecContext(drop table) > %w", err)
			}
		}
		for _, stmt := range createStatements {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("db.ExecContext(create table) > %w", err)
			}
		}

		if err := s.insertDictionary(ctx); err != nil {
			return err
		}
		if err := s.insertSentences(ctx, sentenceDecks); err != nil {
			return err
		}

		// Full aggregate pass: every item with outbound links gets its
		// counters computed from its children before the first search.
		var parents []string
		if err := s.db.SelectContext(ctx, &parents,
			"SELECT DISTINCT from_hash FROM mine.item_links ORDER BY from_hash"); err != nil {
			return fmt.Errorf("db.SelectContext(all parents) > %w", err)
		}
		if err := s.recomputeParents(ctx, parents); err != nil {
			return err
		}

		var err error
		stats, err = s.updateLocked(ctx, activeDecks, knownDecks)
		return err
	})
	return stats, err
}

func (s *Store) insertDictionary(ctx context.Context) error {
	entries := s.dict.Entries()
	for i := range entries {
		e := &entries[i]
		hash := s.entryHashes[e]
		_, canonical, err := ContentHash(e.CanonicalContent())
		if err != nil {
			return fmt.Errorf("itemstore.ContentHash() > %w", err)
		}
		item := Item{
			Hash:          hash,
			Type:          TypeWord,
			Content:       canonical,
			Text:          e.Simplified,
			Pronunciation: joinPinyin(e),
			Meaning:       joinGlosses(e),
			Tier:          int(s.dict.Tier(e)),
		}
		if _, err := s.putLocked(ctx, item); err != nil {
			return err
		}
	}

	// Compounds link to the dictionary words embedded in them, so a
	// compound's aggregates reflect how well its parts are known.
	for i := range entries {
		e := &entries[i]
		if utf8.RuneCountInString(e.Simplified) < 2 {
			continue
		}
		for _, sw := range s.dict.Subwords(e.Simplified) {
			if sw.Entry == e {
				continue
			}
			link := ItemLink{
				FromHash:    s.entryHashes[e],
				ToHash:      s.entryHashes[sw.Entry],
				StartOffset: sw.Start,
				EndOffset:   sw.End,
			}
			if err := s.linkItemsLocked(ctx, link); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) insertSentences(ctx context.Context, sentenceDecks []string) error {
	models, err := s.col.Models(ctx)
	if err != nil {
		return fmt.Errorf("col.Models() > %w", err)
	}

	for _, deckName := range sentenceDecks {
		deckID, found, err := s.col.DeckIDByName(ctx, deckName)
		if err != nil {
			return fmt.Errorf("col.DeckIDByName() > %w", err)
		}
		if !found {
			slog.Info("configured sentence deck not in collection, skipping", "deck", deckName)
			continue
		}
		notes, err := s.col.NotesInDeck(ctx, deckID)
		if err != nil {
			return fmt.Errorf("col.NotesInDeck() > %w", err)
		}

		for _, note := range notes {
			fields := collection.DetectFields(models[note.ModelID], note.Fields)
			content := sentenceContent(fields.Text, fields.Pinyin, fields.Meaning)
			hash, canonical, err := ContentHash(content)
			if err != nil {
				return fmt.Errorf("itemstore.ContentHash() > %w", err)
			}
			item := Item{
				Hash:          hash,
				Type:          TypeSentence,
				Content:       canonical,
				Text:          fields.Text,
				Pronunciation: fields.Pinyin,
				Meaning:       fields.Meaning,
			}
			if _, err := s.putLocked(ctx, item); err != nil {
				return err
			}
			for _, span := range s.seg.Segment(fields.Text) {
				link := ItemLink{
					FromHash:    hash,
					ToHash:      s.entryHashes[span.Entry],
					StartOffset: span.Start,
					EndOffset:   span.End,
				}
				if err := s.linkItemsLocked(ctx, link); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func joinPinyin(e *cedict.Entry) string {
	parts := make([]string, 0, len(e.Readings))
	for _, r := range e.Readings {
		parts = append(parts, r.Pinyin)
	}
	return strings.Join(parts, "; ")
}

func joinGlosses(e *cedict.Entry) string {
	var parts []string
	for _, r := range e.Readings {
		parts = append(parts, r.Glosses...)
	}
	return strings.Join(parts, "/")
}
