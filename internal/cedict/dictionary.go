package cedict

import (
	"sort"
	"unicode/utf8"

	"github.com/tchap/go-patricia/v2/patricia"
)

// Candidate is one headword spelling the segmenter may try to match at a
// position. Word is the concrete spelling (traditional or simplified) that
// has to match the text.
type Candidate struct {
	Entry *Entry
	Word  string
}

// Subword locates a shorter dictionary word embedded inside a compound
// headword. Offsets are in runes relative to the compound.
type Subword struct {
	Entry *Entry
	Word  string
	Start int
	End   int
}

// Dictionary is the owned index over a parsed entry list: headword lookup,
// acquisition tiers, the per-leading-rune candidate index consumed by the
// segmenter, and a prefix trie for sub-word discovery within compounds.
// It is immutable after New and safe for concurrent reads.
type Dictionary struct {
	entries []Entry
	byWord  map[string][]*Entry
	tiers   map[string]Tier
	index   map[rune][]Candidate
	trie    *patricia.Trie
}

// New builds a Dictionary from parsed entries and an acquisition tier map
// keyed by simplified headword.
func New(entries []Entry, tiers map[string]Tier) *Dictionary {
	if tiers == nil {
		tiers = map[string]Tier{}
	}
	d := &Dictionary{
		entries: entries,
		byWord:  map[string][]*Entry{},
		tiers:   tiers,
		index:   map[rune][]Candidate{},
		trie:    patricia.NewTrie(),
	}

	for i := range d.entries {
		e := &d.entries[i]
		d.addSpelling(e, e.Traditional)
		if e.Simplified != e.Traditional {
			d.addSpelling(e, e.Simplified)
		}
	}

	// Candidate preference: longest spelling first, then lowest acquisition
	// tier, then source order. This is the order segmentation resolves
	// overlapping matches in, so it must be total and stable.
	for r, candidates := range d.index {
		sort.SliceStable(candidates, func(i, j int) bool {
			li := utf8.RuneCountInString(candidates[i].Word)
			lj := utf8.RuneCountInString(candidates[j].Word)
			if li != lj {
				return li > lj
			}
			ti := d.effectiveTier(candidates[i].Entry)
			tj := d.effectiveTier(candidates[j].Entry)
			return ti < tj
		})
		d.index[r] = candidates
	}

	return d
}

func (d *Dictionary) addSpelling(e *Entry, word string) {
	if word == "" {
		return
	}
	d.byWord[word] = append(d.byWord[word], e)

	first, _ := utf8.DecodeRuneInString(word)
	d.index[first] = append(d.index[first], Candidate{Entry: e, Word: word})

	prefix := patricia.Prefix(word)
	if item := d.trie.Get(prefix); item != nil {
		d.trie.Set(prefix, append(item.([]*Entry), e))
	} else {
		d.trie.Set(prefix, []*Entry{e})
	}
}

// effectiveTier orders TierNone after every real tier.
func (d *Dictionary) effectiveTier(e *Entry) Tier {
	if t := d.tiers[e.Simplified]; t != TierNone {
		return t
	}
	return MaxTier + 1
}

// Entries returns all merged entries in source order.
func (d *Dictionary) Entries() []Entry {
	return d.entries
}

// Len returns the number of merged entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Lookup returns the entries whose traditional or simplified spelling equals
// word, in source order, or nil when the word is not in the dictionary.
func (d *Dictionary) Lookup(word string) []*Entry {
	return d.byWord[word]
}

// Tier returns the resolved acquisition tier of an entry: the lowest tier
// whose word-list contains its simplified spelling, or TierNone.
func (d *Dictionary) Tier(e *Entry) Tier {
	return d.tiers[e.Simplified]
}

// CandidatesAt returns the match candidates whose spelling starts with r,
// in preference order.
func (d *Dictionary) CandidatesAt(r rune) []Candidate {
	return d.index[r]
}

// Subwords returns every strictly shorter dictionary word embedded in the
// given compound spelling, at every offset, ordered by start offset then
// length. The compound itself is not part of the yield.
func (d *Dictionary) Subwords(word string) []Subword {
	var out []Subword
	runes := []rune(word)
	for i := range runes {
		suffix := string(runes[i:])
		start := i
		_ = d.trie.VisitPrefixes(patricia.Prefix(suffix), func(p patricia.Prefix, item patricia.Item) error {
			matched := string(p)
			n := utf8.RuneCountInString(matched)
			if start == 0 && n == len(runes) {
				return nil
			}
			for _, e := range item.([]*Entry) {
				out = append(out, Subword{Entry: e, Word: matched, Start: start, End: start + n})
			}
			return nil
		})
	}
	return out
}
