package itemstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/hanmine/hanmine/internal/cedict"
	"github.com/hanmine/hanmine/internal/collection"
)

// SQLite limits the number of bound variables per statement.
const inChunkSize = 500

// Update runs one incremental aggregation pass over the vocabulary decks:
// discover note links for single-word notes, detect review-counter deltas
// against the snapshots, refresh the snapshots, re-derive max_correct for
// the directly affected items, and recompute the aggregates of their
// parents. Cost is proportional to the number of changed or new cards, not
// to the corpus. The whole pass commits atomically; on error no snapshot
// writes persist.
func (s *Store) Update(ctx context.Context, activeDecks, knownDecks []string) (UpdateStats, error) {
	var stats UpdateStats
	err := s.withStore(ctx, func(ctx context.Context) error {
		if err := s.ensureSchema(ctx); err != nil {
			return err
		}
		var err error
		stats, err = s.updateLocked(ctx, activeDecks, knownDecks)
		return err
	})
	return stats, err
}

func (s *Store) updateLocked(ctx context.Context, activeDecks, knownDecks []string) (UpdateStats, error) {
	var stats UpdateStats

	activeDids, err := s.resolveDecks(ctx, activeDecks)
	if err != nil {
		return stats, err
	}
	knownDids, err := s.resolveDecks(ctx, knownDecks)
	if err != nil {
		return stats, err
	}
	wordDids := append(append([]int64{}, activeDids...), knownDids...)

	if err := s.discoverNoteLinks(ctx, wordDids); err != nil {
		return stats, err
	}

	cards, err := s.col.CardsInDecks(ctx, wordDids)
	if err != nil {
		return stats, fmt.Errorf("col.CardsInDecks() > %w", err)
	}

	changed, added, err := s.detectDeltas(ctx, cards)
	if err != nil {
		return stats, err
	}
	stats.NumChanged = len(changed)
	stats.NumNew = len(added)

	if err := s.writeSnapshots(ctx, append(append([]collection.Card{}, changed...), added...)); err != nil {
		return stats, err
	}

	affected, err := s.recomputeAffectedItems(ctx, changed, added, cards, knownDids)
	if err != nil {
		return stats, err
	}

	parents, err := s.parentsOf(ctx, affected)
	if err != nil {
		return stats, err
	}
	stats.NumParents = len(parents)

	if err := s.recomputeParents(ctx, parents); err != nil {
		return stats, err
	}
	return stats, nil
}

// resolveDecks maps configured deck names to ids. A name missing from the
// collection contributes nothing.
func (s *Store) resolveDecks(ctx context.Context, names []string) ([]int64, error) {
	var dids []int64
	for _, name := range names {
		did, found, err := s.col.DeckIDByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("col.DeckIDByName() > %w", err)
		}
		if !found {
			slog.Info("configured vocabulary deck not in collection, skipping", "deck", name)
			continue
		}
		dids = append(dids, did)
	}
	return dids, nil
}

// discoverNoteLinks links vocabulary notes to dictionary items. A note
// qualifies only when its detected text field segments into exactly one
// dictionary span: multi-span notes would attribute one note's review
// strength to several words, so they are skipped as ambiguous.
func (s *Store) discoverNoteLinks(ctx context.Context, wordDids []int64) error {
	models, err := s.col.Models(ctx)
	if err != nil {
		return fmt.Errorf("col.Models() > %w", err)
	}

	for _, did := range wordDids {
		notes, err := s.col.NotesInDeck(ctx, did)
		if err != nil {
			return fmt.Errorf("col.NotesInDeck() > %w", err)
		}
		for _, note := range notes {
			fields := collection.DetectFields(models[note.ModelID], note.Fields)
			spans := s.seg.Segment(fields.Text)
			if len(spans) != 1 {
				continue
			}
			if err := s.linkNoteLocked(ctx, s.entryHashes[spans[0].Entry], note.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// detectDeltas partitions the current cards into changed (snapshot exists
// with different counters or marking) and new (no snapshot). Untouched
// cards are dropped here and never looked at again.
func (s *Store) detectDeltas(ctx context.Context, cards []collection.Card) (changed, added []collection.Card, err error) {
	var snapshots []ReviewSnapshot
	if err := s.db.SelectContext(ctx, &snapshots, "SELECT * FROM mine.review_snapshots"); err != nil {
		return nil, nil, fmt.Errorf("db.SelectContext(review snapshots) > %w", err)
	}
	known := make(map[int64]ReviewSnapshot, len(snapshots))
	for _, snap := range snapshots {
		known[snap.CardID] = snap
	}

	for _, card := range cards {
		snap, ok := known[card.ID]
		switch {
		case !ok:
			added = append(added, card)
		case snap.Reps != card.Reps || snap.Lapses != card.Lapses || snap.Marking != card.Marking:
			changed = append(changed, card)
		}
	}
	return changed, added, nil
}

// writeSnapshots upserts one snapshot per delta card, exactly once per run.
func (s *Store) writeSnapshots(ctx context.Context, cards []collection.Card) error {
	for _, card := range cards {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO mine.review_snapshots (card_id, note_id, reps, lapses, marking)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (card_id) DO UPDATE SET
				reps = excluded.reps, lapses = excluded.lapses, marking = excluded.marking`,
			card.ID, card.NoteID, card.Reps, card.Lapses, card.Marking)
		if err != nil {
			return fmt.Errorf("db.ExecContext(upsert snapshot) > %w", err)
		}
	}
	return nil
}

// recomputeAffectedItems re-derives max_correct for every item note-linked
// to a delta card's note, from current ground truth rather than running
// sums: the maximum effective correct count across all cards of all linked
// notes. Cards in known-vocabulary decks, and cards carrying the known
// marking, count at the known ceiling. Returns the affected item hashes.
func (s *Store) recomputeAffectedItems(ctx context.Context, changed, added, allCards []collection.Card, knownDids []int64) ([]string, error) {
	noteIDs := map[int64]bool{}
	for _, card := range changed {
		noteIDs[card.NoteID] = true
	}
	for _, card := range added {
		noteIDs[card.NoteID] = true
	}
	if len(noteIDs) == 0 {
		return nil, nil
	}

	knownDeck := make(map[int64]bool, len(knownDids))
	for _, did := range knownDids {
		knownDeck[did] = true
	}
	cardsByNote := map[int64][]collection.Card{}
	for _, card := range allCards {
		cardsByNote[card.NoteID] = append(cardsByNote[card.NoteID], card)
	}

	links, err := s.noteLinksForNotes(ctx, keys(noteIDs))
	if err != nil {
		return nil, err
	}

	// note_links run item -> note; group the notes behind each item.
	itemNotes := map[string][]int64{}
	for _, link := range links {
		itemNotes[link.Hash] = append(itemNotes[link.Hash], link.NoteID)
	}

	affected := make([]string, 0, len(itemNotes))
	for hash, nids := range itemNotes {
		maxCorrect := 0
		for _, nid := range nids {
			for _, card := range cardsByNote[nid] {
				correct := card.Correct()
				if knownDeck[card.DeckID] {
					correct = collection.KnownCorrect()
				}
				if correct > maxCorrect {
					maxCorrect = correct
				}
			}
		}
		_, err := s.db.ExecContext(ctx,
			"UPDATE mine.items SET max_correct = ? WHERE hash = ?", maxCorrect, hash)
		if err != nil {
			return nil, fmt.Errorf("db.ExecContext(update max_correct) > %w", err)
		}
		affected = append(affected, hash)
	}
	return affected, nil
}

// noteLinksForNotes returns every note link whose note is in noteIDs.
// An item linked to any delta note is recomputed over all of its notes.
func (s *Store) noteLinksForNotes(ctx context.Context, noteIDs []int64) ([]NoteLink, error) {
	var hashes []string
	for _, chunk := range chunkRanges(len(noteIDs), inChunkSize) {
		query, args, err := sqlx.In(
			"SELECT DISTINCT hash FROM mine.note_links WHERE note_id IN (?)", noteIDs[chunk[0]:chunk[1]])
		if err != nil {
			return nil, fmt.Errorf("sqlx.In(note links by note) > %w", err)
		}
		var part []string
		if err := s.db.SelectContext(ctx, &part, s.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("db.SelectContext(note links by note) > %w", err)
		}
		hashes = append(hashes, part...)
	}
	if len(hashes) == 0 {
		return nil, nil
	}

	var links []NoteLink
	for _, chunk := range chunkRanges(len(hashes), inChunkSize) {
		query, args, err := sqlx.In(
			"SELECT hash, note_id FROM mine.note_links WHERE hash IN (?)", hashes[chunk[0]:chunk[1]])
		if err != nil {
			return nil, fmt.Errorf("sqlx.In(note links by hash) > %w", err)
		}
		var part []NoteLink
		if err := s.db.SelectContext(ctx, &part, s.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("db.SelectContext(note links by hash) > %w", err)
		}
		links = append(links, part...)
	}
	return links, nil
}

// parentsOf returns the distinct items linking to any of the given items.
func (s *Store) parentsOf(ctx context.Context, hashes []string) ([]string, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	var parents []string
	for _, chunk := range chunkRanges(len(hashes), inChunkSize) {
		query, args, err := sqlx.In(
			"SELECT DISTINCT from_hash FROM mine.item_links WHERE to_hash IN (?) ORDER BY from_hash",
			hashes[chunk[0]:chunk[1]])
		if err != nil {
			return nil, fmt.Errorf("sqlx.In(parents) > %w", err)
		}
		var part []string
		if err := s.db.SelectContext(ctx, &part, s.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("db.SelectContext(parents) > %w", err)
		}
		parents = append(parents, part...)
	}
	return dedupe(parents), nil
}

type childRow struct {
	FromHash   string `db:"from_hash"`
	Type       string `db:"type"`
	Tier       int    `db:"tier"`
	MaxCorrect int    `db:"max_correct"`
}

// recomputeParents rebuilds the tier-count aggregates of the given items
// from scratch by re-scanning their direct children. Word children fall
// into exactly one of the four counts; children of other types only
// contribute to num_links.
func (s *Store) recomputeParents(ctx context.Context, parents []string) error {
	if len(parents) == 0 {
		return nil
	}

	childrenByParent := map[string][]childRow{}
	for _, chunk := range chunkRanges(len(parents), inChunkSize) {
		query, args, err := sqlx.In(`
			SELECT item_links.from_hash, items.type, items.tier, items.max_correct
			FROM mine.item_links AS item_links
			JOIN mine.items AS items ON items.hash = item_links.to_hash
			WHERE item_links.from_hash IN (?)`,
			parents[chunk[0]:chunk[1]])
		if err != nil {
			return fmt.Errorf("sqlx.In(children) > %w", err)
		}
		var rows []childRow
		if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
			return fmt.Errorf("db.SelectContext(children) > %w", err)
		}
		for _, row := range rows {
			childrenByParent[row.FromHash] = append(childrenByParent[row.FromHash], row)
		}
	}

	for _, parent := range parents {
		var numKnown, numMemorizing, numLearning, numUnknown int
		children := childrenByParent[parent]
		for _, child := range children {
			if child.Type != TypeWord {
				continue
			}
			switch Classify(child.MaxCorrect, cedict.Tier(child.Tier), s.completedTier) {
			case KnowledgeKnown:
				numKnown++
			case KnowledgeMemorizing:
				numMemorizing++
			case KnowledgeLearning:
				numLearning++
			default:
				numUnknown++
			}
		}
		_, err := s.db.ExecContext(ctx, `
			UPDATE mine.items
			SET num_known = ?, num_memorizing = ?, num_learning = ?, num_unknown = ?, num_links = ?
			WHERE hash = ?`,
			numKnown, numMemorizing, numLearning, numUnknown, len(children), parent)
		if err != nil {
			return fmt.Errorf("db.ExecContext(update parent aggregates) > %w", err)
		}
	}
	return nil
}

// chunkRanges splits [0, n) into half-open index ranges of at most size.
func chunkRanges(n, size int) [][2]int {
	var ranges [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		ranges = append(ranges, [2]int{start, end})
	}
	return ranges
}

func keys(m map[int64]bool) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
