// Package cedict loads a CC-CEDICT style dictionary source and builds the
// lookup structures used for segmentation.
package cedict

// Tier is an ordinal acquisition level for a headword. Lower is more basic.
// TierNone marks words that appear in no acquisition word-list.
type Tier int

// TierNone is the sentinel for unclassified words.
const TierNone Tier = 0

// MaxTier is the highest acquisition level in the bundled word-lists.
const MaxTier Tier = 6

// Reading is one pronunciation of a headword together with its glosses.
type Reading struct {
	Pinyin  string   `json:"pinyin" msgpack:"pinyin"`
	Glosses []string `json:"glosses" msgpack:"glosses"`
}

// Entry is a dictionary entry. Source lines sharing the same
// (traditional, simplified) spelling pair are merged into a single Entry
// carrying every reading in source order.
type Entry struct {
	Traditional string    `json:"traditional" msgpack:"traditional"`
	Simplified  string    `json:"simplified" msgpack:"simplified"`
	Readings    []Reading `json:"readings" msgpack:"readings"`
}

// CanonicalContent returns the stable serializable form of the entry that
// content hashes are derived from. Shape: [trad, simp, [[pinyin, [gloss...]]...]].
func (e Entry) CanonicalContent() []any {
	readings := make([]any, 0, len(e.Readings))
	for _, r := range e.Readings {
		glosses := make([]any, 0, len(r.Glosses))
		for _, g := range r.Glosses {
			glosses = append(glosses, g)
		}
		readings = append(readings, []any{r.Pinyin, glosses})
	}
	return []any{e.Traditional, e.Simplified, readings}
}
