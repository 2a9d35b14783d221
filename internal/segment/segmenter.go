// Package segment splits Han-script text into dictionary-recognized word
// spans. There is a single segmentation implementation; every consumer
// (index building, note discovery, search rendering) goes through it.
package segment

import (
	"sort"

	"github.com/hanmine/hanmine/internal/cedict"
)

// Span locates one dictionary word inside a text. Offsets are in runes.
type Span struct {
	Entry *cedict.Entry
	Word  string
	Start int
	End   int
}

// Segmenter segments text against an explicit dictionary handle.
type Segmenter struct {
	dict *cedict.Dictionary
}

// New creates a Segmenter over dict.
func New(dict *cedict.Dictionary) *Segmenter {
	return &Segmenter{dict: dict}
}

// Segment returns the non-overlapping dictionary word spans in text,
// resolved greedily left to right: at each position candidates are tried in
// the dictionary's preference order (longest spelling first, then lowest
// acquisition tier), and runes claimed by an accepted span are unavailable
// to any later candidate. The result is sorted by start offset and is
// deterministic for a fixed text and dictionary.
func (s *Segmenter) Segment(text string) []Span {
	runes := []rune(text)
	taken := make([]bool, len(runes))

	var spans []Span
	for i := 0; i < len(runes); i++ {
		if taken[i] {
			continue
		}
		for _, c := range s.dict.CandidatesAt(runes[i]) {
			word := []rune(c.Word)
			end := i + len(word)
			if end > len(runes) {
				continue
			}
			if string(runes[i:end]) != c.Word {
				continue
			}
			if anyTaken(taken, i, end) {
				continue
			}
			spans = append(spans, Span{Entry: c.Entry, Word: c.Word, Start: i, End: end})
			for j := i; j < end; j++ {
				taken[j] = true
			}
			break
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return spans
}

func anyTaken(taken []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if taken[i] {
			return true
		}
	}
	return false
}
