// Package itemstore maintains the content-addressed graph of dictionary
// entries and user sentences in a secondary SQLite database attached beside
// the flashcard collection, keeps per-item knowledge aggregates up to date
// incrementally, and answers sentence searches over the graph.
package itemstore

import "github.com/hanmine/hanmine/internal/cedict"

// Item type discriminators.
const (
	TypeWord     = "word"
	TypeSentence = "sentence"
)

// Item is one node of the graph: a dictionary word or a user sentence.
// Hash is derived from the immutable content fields only; the aggregate
// columns (max_correct and the num_* counters) are recomputed in place and
// never participate in the identity.
type Item struct {
	Hash          string `db:"hash"`
	Type          string `db:"type"`
	Content       string `db:"content"`
	Text          string `db:"text"`
	Pronunciation string `db:"pronunciation"`
	Meaning       string `db:"meaning"`
	Tier          int    `db:"tier"`
	MaxCorrect    int    `db:"max_correct"`
	NumKnown      int    `db:"num_known"`
	NumMemorizing int    `db:"num_memorizing"`
	NumLearning   int    `db:"num_learning"`
	NumUnknown    int    `db:"num_unknown"`
	NumLinks      int    `db:"num_links"`
}

// ItemLink is a directed edge: the word at rune offsets
// [StartOffset, EndOffset) of FromHash's text is the item ToHash.
// At most one link exists per ordered (from, to) pair.
type ItemLink struct {
	FromHash    string `db:"from_hash"`
	ToHash      string `db:"to_hash"`
	StartOffset int    `db:"start_offset"`
	EndOffset   int    `db:"end_offset"`
}

// NoteLink associates an item with a reviewable note in the collection.
type NoteLink struct {
	Hash   string `db:"hash"`
	NoteID int64  `db:"note_id"`
}

// ReviewSnapshot caches the last-seen review state of one card, keyed by
// card id. It exists only to detect deltas between update runs; the
// collection stays the source of truth. The marking is part of the state:
// marking a card known changes its effective strength without moving the
// counters.
type ReviewSnapshot struct {
	CardID  int64  `db:"card_id"`
	NoteID  int64  `db:"note_id"`
	Reps    int    `db:"reps"`
	Lapses  int    `db:"lapses"`
	Marking string `db:"marking"`
}

// UpdateStats reports the fan-out of one incremental update pass.
type UpdateStats struct {
	NumNew     int
	NumChanged int
	NumParents int
}

// LinkedWord is one dictionary word linked from a sentence, with everything
// the caller needs to render it: span, review strength, and tier.
type LinkedWord struct {
	Hash          string `db:"hash"`
	Word          string `db:"text"`
	Pronunciation string `db:"pronunciation"`
	Meaning       string `db:"meaning"`
	Tier          int    `db:"tier"`
	MaxCorrect    int    `db:"max_correct"`
	StartOffset   int    `db:"start_offset"`
	EndOffset     int    `db:"end_offset"`
}

// SearchFilter restricts and caps a sentence search. Text, when non-empty,
// is a literal case-sensitive substring match. NumUnknown, when set,
// requires an exact num_unknown aggregate. Limit <= 0 means unbounded.
type SearchFilter struct {
	Text       string
	NumUnknown *int
	Limit      int
}

// SearchResult is one sentence item with its linked words sorted by span
// start offset.
type SearchResult struct {
	Item  Item
	Words []LinkedWord
}

// Knowledge is the review-strength classification of a word for the
// current user.
type Knowledge int

const (
	KnowledgeUnknown Knowledge = iota
	KnowledgeLearning
	KnowledgeMemorizing
	KnowledgeKnown
)

// Classification thresholds over an item's max_correct aggregate.
const (
	knownThreshold = 8
	memorizingMin  = 5
	learningMin    = 1
)

// Classify buckets a word by its net correct repetitions and acquisition
// tier. Words at or below the user's completed tier are known outright;
// otherwise the buckets partition on max correct: >8 known, 5-8 memorizing,
// 1-4 learning, else unknown.
func Classify(maxCorrect int, tier cedict.Tier, completedTier cedict.Tier) Knowledge {
	if tier != cedict.TierNone && tier <= completedTier {
		return KnowledgeKnown
	}
	switch {
	case maxCorrect > knownThreshold:
		return KnowledgeKnown
	case maxCorrect >= memorizingMin:
		return KnowledgeMemorizing
	case maxCorrect >= learningMin:
		return KnowledgeLearning
	default:
		return KnowledgeUnknown
	}
}
