package itemstore

import (
	"context"
	"fmt"

	"github.com/hanmine/hanmine/internal/cedict"
	"github.com/hanmine/hanmine/internal/collection"
)

// Search returns study-candidate sentences: sentence items with no note
// link, i.e. not already in the collection. Results are ordered by
// num_unknown ascending so the sentences closest to fully known come
// first, with the hash as a deterministic tie-break. Each result carries
// its linked words sorted by span start.
func (s *Store) Search(ctx context.Context, filter SearchFilter) ([]SearchResult, error) {
	var results []SearchResult
	err := s.withStore(ctx, func(ctx context.Context) error {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		var err error
		results, err = s.searchLocked(ctx, filter)
		return err
	})
	return results, err
}

func (s *Store) searchLocked(ctx context.Context, filter SearchFilter) ([]SearchResult, error) {
	query := `
		SELECT * FROM mine.items
		WHERE type = ?
		AND NOT EXISTS (SELECT 1 FROM mine.note_links WHERE note_links.hash = items.hash)`
	args := []any{TypeSentence}
	if filter.Text != "" {
		query += " AND instr(items.text, ?) > 0"
		args = append(args, filter.Text)
	}
	if filter.NumUnknown != nil {
		query += " AND num_unknown = ?"
		args = append(args, *filter.NumUnknown)
	}
	query += " ORDER BY num_unknown, hash"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var items []Item
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("db.SelectContext(search sentences) > %w", err)
	}

	results := make([]SearchResult, 0, len(items))
	for _, item := range items {
		words, err := s.linkedWordsLocked(ctx, item.Hash)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{Item: item, Words: words})
	}
	return results, nil
}

func (s *Store) linkedWordsLocked(ctx context.Context, hash string) ([]LinkedWord, error) {
	var words []LinkedWord
	err := s.db.SelectContext(ctx, &words, `
		SELECT items.hash, items.text, items.pronunciation, items.meaning,
			items.tier, items.max_correct,
			item_links.start_offset, item_links.end_offset
		FROM mine.item_links AS item_links
		JOIN mine.items AS items ON items.hash = item_links.to_hash
		WHERE item_links.from_hash = ?
		ORDER BY item_links.start_offset`, hash)
	if err != nil {
		return nil, fmt.Errorf("db.SelectContext(linked words) > %w", err)
	}
	return words, nil
}

// ClassifyWord buckets one of the store's linked words for rendering.
func (s *Store) ClassifyWord(w LinkedWord) Knowledge {
	return Classify(w.MaxCorrect, cedict.Tier(w.Tier), s.completedTier)
}

// Promote turns a candidate sentence into a reviewable note: it creates a
// note of the given model in the given deck with the sentence's text,
// pronunciation, and meaning, and links the sentence item to the new note
// so it stops appearing in searches. Promoting an already promoted
// sentence is an error.
func (s *Store) Promote(ctx context.Context, hash, deckName, modelName string) (int64, error) {
	var noteID int64
	err := s.withStore(ctx, func(ctx context.Context) error {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}

		item, err := s.itemByHashLocked(ctx, hash)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("no item with hash %s", hash)
		}
		if item.Type != TypeSentence {
			return fmt.Errorf("item %s is a %s, not a sentence", hash, item.Type)
		}
		var links []NoteLink
		if err := s.db.SelectContext(ctx, &links,
			"SELECT hash, note_id FROM mine.note_links WHERE hash = ?", hash); err != nil {
			return fmt.Errorf("db.SelectContext(note links) > %w", err)
		}
		if len(links) > 0 {
			return fmt.Errorf("sentence %s is already linked to note %d", hash, links[0].NoteID)
		}

		deckID, found, err := s.col.DeckIDByName(ctx, deckName)
		if err != nil {
			return fmt.Errorf("col.DeckIDByName() > %w", err)
		}
		if !found {
			return fmt.Errorf("no deck named %q", deckName)
		}
		model, err := s.modelByName(ctx, modelName)
		if err != nil {
			return err
		}

		fields := collection.FillFields(model, collection.NoteFields{
			Text:    item.Text,
			Pinyin:  item.Pronunciation,
			Meaning: item.Meaning,
		})
		noteID, err = s.col.CreateNote(ctx, deckID, model.ID, fields)
		if err != nil {
			return fmt.Errorf("col.CreateNote() > %w", err)
		}
		return s.linkNoteLocked(ctx, hash, noteID)
	})
	return noteID, err
}

// MarkKnown marks every card of every note linked to the item as known, so
// the next update pass counts the word at full strength. An item with no
// note links cannot be marked; create a note for it first.
func (s *Store) MarkKnown(ctx context.Context, hash string) error {
	return s.withStore(ctx, func(ctx context.Context) error {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}

		var links []NoteLink
		if err := s.db.SelectContext(ctx, &links,
			"SELECT hash, note_id FROM mine.note_links WHERE hash = ?", hash); err != nil {
			return fmt.Errorf("db.SelectContext(note links) > %w", err)
		}
		if len(links) == 0 {
			return fmt.Errorf("item %s has no linked notes", hash)
		}
		for _, link := range links {
			if err := s.col.MarkCardsForNote(ctx, link.NoteID, collection.MarkingKnown); err != nil {
				return fmt.Errorf("col.MarkCardsForNote() > %w", err)
			}
		}
		return nil
	})
}

func (s *Store) modelByName(ctx context.Context, name string) (collection.Model, error) {
	models, err := s.col.Models(ctx)
	if err != nil {
		return collection.Model{}, fmt.Errorf("col.Models() > %w", err)
	}
	for _, model := range models {
		if model.Name == name {
			return model, nil
		}
	}
	return collection.Model{}, fmt.Errorf("no note type named %q", name)
}
