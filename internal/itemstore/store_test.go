package itemstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanmine/hanmine/internal/cedict"
	"github.com/hanmine/hanmine/internal/collection"
	"github.com/hanmine/hanmine/internal/testutil"
)

func newTestDictionary() *cedict.Dictionary {
	entries := []cedict.Entry{
		{
			Traditional: "中國", Simplified: "中国",
			Readings: []cedict.Reading{{Pinyin: "Zhong1 guo2", Glosses: []string{"China"}}},
		},
		{
			Traditional: "人", Simplified: "人",
			Readings: []cedict.Reading{{Pinyin: "ren2", Glosses: []string{"person"}}},
		},
		{
			Traditional: "中國人", Simplified: "中国人",
			Readings: []cedict.Reading{{Pinyin: "Zhong1 guo2 ren2", Glosses: []string{"Chinese person"}}},
		},
		{
			Traditional: "很", Simplified: "很",
			Readings: []cedict.Reading{{Pinyin: "hen3", Glosses: []string{"very"}}},
		},
		{
			Traditional: "好", Simplified: "好",
			Readings: []cedict.Reading{{Pinyin: "hao3", Glosses: []string{"good"}}},
		},
	}
	tiers := map[string]cedict.Tier{
		"中国":  1,
		"人":   1,
		"很":   1,
		"好":   1,
		"中国人": 2,
	}
	return cedict.New(entries, tiers)
}

type storeFixture struct {
	builder *testutil.CollectionBuilder
	col     *collection.DBCollection
	store   *Store
	dict    *cedict.Dictionary

	sentenceDeck string
	activeDeck   string
	knownDeck    string
	modelID      int64
}

// newStoreFixture builds a collection with one sentence deck holding
// "中国人很好", an empty active vocabulary deck, and an empty known
// vocabulary deck, plus a store over a five-word dictionary with the
// user's completed tier set to 1.
func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()

	builder, db := testutil.NewCollection(t)
	sentenceDid := builder.AddDeck("Sentences")
	builder.AddDeck("Vocabulary")
	builder.AddDeck("Known")
	modelID := builder.AddModel("Chinese", "Hanzi", "Pinyin", "English")
	builder.AddNote(modelID, sentenceDid, "中国人很好", "Zhong1 guo2 ren2 hen3 hao3", "Chinese people are great")

	dict := newTestDictionary()
	col := collection.NewDBCollection(db)
	store, err := New(col, dict, testutil.StorePath(t), 1)
	require.NoError(t, err)

	return &storeFixture{
		builder:      builder,
		col:          col,
		store:        store,
		dict:         dict,
		sentenceDeck: "Sentences",
		activeDeck:   "Vocabulary",
		knownDeck:    "Known",
		modelID:      modelID,
	}
}

func (f *storeFixture) initialize(t *testing.T) UpdateStats {
	t.Helper()
	stats, err := f.store.Initialize(context.Background(),
		[]string{f.sentenceDeck}, []string{f.activeDeck}, []string{f.knownDeck})
	require.NoError(t, err)
	return stats
}

func (f *storeFixture) update(t *testing.T) UpdateStats {
	t.Helper()
	stats, err := f.store.Update(context.Background(), []string{f.activeDeck}, []string{f.knownDeck})
	require.NoError(t, err)
	return stats
}

func (f *storeFixture) wordHash(t *testing.T, word string) string {
	t.Helper()
	entries := f.dict.Lookup(word)
	require.NotEmpty(t, entries)
	return f.store.EntryHash(entries[0])
}

func (f *storeFixture) sentenceHash(t *testing.T, text, pinyin, meaning string) string {
	t.Helper()
	hash, _, err := ContentHash(sentenceContent(text, pinyin, meaning))
	require.NoError(t, err)
	return hash
}

func (f *storeFixture) item(t *testing.T, hash string) Item {
	t.Helper()
	item, err := f.store.ItemByHash(context.Background(), hash)
	require.NoError(t, err)
	require.NotNil(t, item)
	return *item
}

func TestContentHash(t *testing.T) {
	hash1, canonical, err := ContentHash([]any{"中國人", "中国人", []any{}})
	require.NoError(t, err)
	assert.Len(t, hash1, 16)
	assert.Equal(t, `["中國人","中国人",[]]`, canonical)

	hash2, _, err := ContentHash([]any{"中國人", "中国人", []any{}})
	require.NoError(t, err)
	assert.Equal(t, hash1, hash2)

	// A sentence whose text equals a word's spelling must not collide with
	// the word: the sentence form leads with a null slot.
	wordHash, _, err := ContentHash([]any{"中国人", "中国人", []any{}})
	require.NoError(t, err)
	sentHash, _, err := ContentHash(sentenceContent("中国人", "", ""))
	require.NoError(t, err)
	assert.NotEqual(t, wordHash, sentHash)
}

func TestStorePutIdempotent(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	hash, canonical, err := ContentHash(sentenceContent("你好", "ni3 hao3", "hello"))
	require.NoError(t, err)
	item := Item{Hash: hash, Type: TypeSentence, Content: canonical, Text: "你好"}

	got, err := f.store.Put(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, hash, got)

	first := f.item(t, hash)
	_, err = f.store.Put(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, first, f.item(t, hash))
}

func TestStoreItemByHashMissing(t *testing.T) {
	f := newStoreFixture(t)

	item, err := f.store.ItemByHash(context.Background(), "ffffffffffffffff")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestStoreInitialize(t *testing.T) {
	f := newStoreFixture(t)
	stats := f.initialize(t)
	assert.Equal(t, UpdateStats{}, stats)

	// 很 and 好 sit at tier 1, at the user's completed tier, so they count
	// as known with no review history. 中国人 is tier 2 and unreviewed.
	sentence := f.item(t, f.sentenceHash(t, "中国人很好", "Zhong1 guo2 ren2 hen3 hao3", "Chinese people are great"))
	assert.Equal(t, TypeSentence, sentence.Type)
	assert.Equal(t, 3, sentence.NumLinks)
	assert.Equal(t, 2, sentence.NumKnown)
	assert.Equal(t, 1, sentence.NumUnknown)
	assert.Equal(t, 0, sentence.NumLearning)
	assert.Equal(t, 0, sentence.NumMemorizing)

	// The compound links to its embedded dictionary words, both tier 1.
	compound := f.item(t, f.wordHash(t, "中国人"))
	assert.Equal(t, TypeWord, compound.Type)
	assert.Equal(t, 2, compound.Tier)
	assert.Equal(t, 2, compound.NumLinks)
	assert.Equal(t, 2, compound.NumKnown)
	assert.Equal(t, 0, compound.NumUnknown)

	word := f.item(t, f.wordHash(t, "中国"))
	assert.Equal(t, "Zhong1 guo2", word.Pronunciation)
	assert.Equal(t, "China", word.Meaning)
	assert.Equal(t, 1, word.Tier)
	assert.Equal(t, 0, word.NumLinks)
}

func TestStoreInitializeIsIdempotent(t *testing.T) {
	f := newStoreFixture(t)
	f.initialize(t)
	first := f.item(t, f.sentenceHash(t, "中国人很好", "Zhong1 guo2 ren2 hen3 hao3", "Chinese people are great"))

	f.initialize(t)
	assert.Equal(t, first, f.item(t, first.Hash))
}

func TestStoreUpdate(t *testing.T) {
	f := newStoreFixture(t)
	f.initialize(t)
	sentenceHash := f.sentenceHash(t, "中国人很好", "Zhong1 guo2 ren2 hen3 hao3", "Chinese people are great")

	vocabDid, found, err := f.col.DeckIDByName(context.Background(), f.activeDeck)
	require.NoError(t, err)
	require.True(t, found)
	_, cardID := f.builder.AddNote(f.modelID, vocabDid, "中国人", "Zhong1 guo2 ren2", "Chinese person")
	f.builder.SetCardStats(cardID, 1, 0)

	// One correct repetition moves the word from unknown to learning.
	stats := f.update(t)
	assert.Equal(t, 1, stats.NumNew)
	assert.Equal(t, 0, stats.NumChanged)
	assert.Equal(t, 1, stats.NumParents) // only the sentence links to 中国人

	compound := f.item(t, f.wordHash(t, "中国人"))
	assert.Equal(t, 1, compound.MaxCorrect)

	sentence := f.item(t, sentenceHash)
	assert.Equal(t, 1, sentence.NumLearning)
	assert.Equal(t, 0, sentence.NumUnknown)
	assert.Equal(t, 2, sentence.NumKnown)

	// Nine net correct repetitions cross the known threshold.
	f.builder.SetCardStats(cardID, 10, 1)
	stats = f.update(t)
	assert.Equal(t, 0, stats.NumNew)
	assert.Equal(t, 1, stats.NumChanged)

	sentence = f.item(t, sentenceHash)
	assert.Equal(t, 3, sentence.NumKnown)
	assert.Equal(t, 0, sentence.NumLearning)

	// An unchanged collection produces no work.
	stats = f.update(t)
	assert.Equal(t, UpdateStats{}, stats)
}

func TestStoreUpdateAfterMarkKnown(t *testing.T) {
	f := newStoreFixture(t)
	f.initialize(t)
	ctx := context.Background()

	vocabDid, found, err := f.col.DeckIDByName(ctx, f.activeDeck)
	require.NoError(t, err)
	require.True(t, found)
	_, cardID := f.builder.AddNote(f.modelID, vocabDid, "中国人", "Zhong1 guo2 ren2", "Chinese person")
	f.builder.SetCardStats(cardID, 1, 0)
	f.update(t)

	require.NoError(t, f.store.MarkKnown(ctx, f.wordHash(t, "中国人")))

	// The marking alone is a delta: the word jumps to the known ceiling
	// without any repetition counter moving.
	stats := f.update(t)
	assert.Equal(t, 0, stats.NumNew)
	assert.Equal(t, 1, stats.NumChanged)

	compound := f.item(t, f.wordHash(t, "中国人"))
	assert.Equal(t, 10, compound.MaxCorrect)

	sentence := f.item(t, f.sentenceHash(t, "中国人很好", "Zhong1 guo2 ren2 hen3 hao3", "Chinese people are great"))
	assert.Equal(t, 3, sentence.NumKnown)
	assert.Equal(t, 0, sentence.NumLearning)

	// And only once: the marking is snapshotted like the counters.
	assert.Equal(t, UpdateStats{}, f.update(t))
}

func TestStoreReleasesTransactionAfterCancel(t *testing.T) {
	f := newStoreFixture(t)
	f.initialize(t)

	ctx, cancel := context.WithCancel(context.Background())
	err := f.store.withStore(ctx, func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})
	require.ErrorIs(t, err, context.Canceled)

	// The aborted operation must leave no transaction open on the shared
	// connection; the next one begins its own.
	_, err = f.store.ItemByHash(context.Background(), f.wordHash(t, "人"))
	require.NoError(t, err)
}

func TestStoreUpdateKnownDeck(t *testing.T) {
	f := newStoreFixture(t)
	f.initialize(t)

	// A card in the known-vocabulary deck counts at full strength no
	// matter its review counters.
	knownDid, found, err := f.col.DeckIDByName(context.Background(), f.knownDeck)
	require.NoError(t, err)
	require.True(t, found)
	f.builder.AddNote(f.modelID, knownDid, "中国人", "Zhong1 guo2 ren2", "Chinese person")

	stats := f.update(t)
	assert.Equal(t, 1, stats.NumNew)

	sentence := f.item(t, f.sentenceHash(t, "中国人很好", "Zhong1 guo2 ren2 hen3 hao3", "Chinese people are great"))
	assert.Equal(t, 3, sentence.NumKnown)
	assert.Equal(t, 0, sentence.NumUnknown)
}

func TestStoreUpdateSkipsMultiWordNotes(t *testing.T) {
	f := newStoreFixture(t)
	f.initialize(t)

	// A vocabulary note whose text segments into more than one word cannot
	// be attributed to a single dictionary item and is left unlinked.
	vocabDid, found, err := f.col.DeckIDByName(context.Background(), f.activeDeck)
	require.NoError(t, err)
	require.True(t, found)
	_, cardID := f.builder.AddNote(f.modelID, vocabDid, "很好", "hen3 hao3", "very good")
	f.builder.SetCardStats(cardID, 3, 0)

	stats := f.update(t)
	assert.Equal(t, 1, stats.NumNew) // the card snapshot is still taken
	assert.Equal(t, 0, stats.NumParents)
}

func TestStoreUpdateMissingDeck(t *testing.T) {
	f := newStoreFixture(t)
	f.initialize(t)

	stats, err := f.store.Update(context.Background(), []string{"No Such Deck"}, nil)
	require.NoError(t, err)
	assert.Equal(t, UpdateStats{}, stats)
}

func TestClassify(t *testing.T) {
	for name, tc := range map[string]struct {
		maxCorrect    int
		tier          cedict.Tier
		completedTier cedict.Tier
		want          Knowledge
	}{
		"unreviewed and untiered":     {0, cedict.TierNone, 2, KnowledgeUnknown},
		"one correct is learning":     {1, cedict.TierNone, 0, KnowledgeLearning},
		"four correct is learning":    {4, cedict.TierNone, 0, KnowledgeLearning},
		"five correct is memorizing":  {5, cedict.TierNone, 0, KnowledgeMemorizing},
		"eight correct is memorizing": {8, cedict.TierNone, 0, KnowledgeMemorizing},
		"nine correct is known":       {9, cedict.TierNone, 0, KnowledgeKnown},
		"at completed tier":           {0, 2, 2, KnowledgeKnown},
		"below completed tier":        {0, 1, 2, KnowledgeKnown},
		"above completed tier":        {0, 3, 2, KnowledgeUnknown},
		"no tier is never completed":  {0, cedict.TierNone, 6, KnowledgeUnknown},
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.maxCorrect, tc.tier, tc.completedTier))
		})
	}
}
