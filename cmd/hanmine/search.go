package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hanmine/hanmine/internal/itemstore"
)

var (
	knownColor      = color.New(color.FgGreen)
	memorizingColor = color.New(color.FgYellow)
	learningColor   = color.New(color.FgCyan)
	unknownColor    = color.New(color.FgRed)
)

func newSearchCommand() *cobra.Command {
	var (
		text       string
		numUnknown int
		limit      int
	)

	command := &cobra.Command{
		Use:   "search",
		Short: "Find candidate sentences to study, best-matched first",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer func() {
				_ = env.Close()
			}()

			if len(env.cfg.Decks.Sentence) == 0 {
				fmt.Println("No sentence decks configured. Run 'hanmine config decks sentence DECK...' first.")
				return nil
			}

			// Review progress may have moved since the last explicit
			// update; refresh before ranking.
			ctx := cmd.Context()
			if _, err := env.store.Update(ctx, env.cfg.Decks.ActiveVocabulary, env.cfg.Decks.KnownVocabulary); err != nil {
				return fmt.Errorf("store.Update() > %w", err)
			}

			filter := itemstore.SearchFilter{Text: text, Limit: limit}
			if cmd.Flags().Changed("unknown") {
				filter.NumUnknown = &numUnknown
			}
			results, err := env.store.Search(ctx, filter)
			if err != nil {
				return fmt.Errorf("store.Search() > %w", err)
			}
			if len(results) == 0 {
				fmt.Println("No matching sentences.")
				return nil
			}

			for _, result := range results {
				fmt.Println(renderSearchResult(result, env.store.ClassifyWord))
			}
			return nil
		},
	}
	flags := command.Flags()
	flags.StringVar(&text, "text", "", "Only sentences containing this substring")
	flags.IntVar(&numUnknown, "unknown", 0, "Only sentences with exactly this many unknown words")
	flags.IntVar(&limit, "limit", 20, "Maximum number of sentences to show (0 for all)")
	return command
}

// renderSearchResult colors each linked word of the sentence by how well
// the user knows it: green known, yellow memorizing, cyan learning, red
// unknown. Runs outside any span stay plain.
func renderSearchResult(result itemstore.SearchResult, classify func(itemstore.LinkedWord) itemstore.Knowledge) string {
	runes := []rune(result.Item.Text)
	var b strings.Builder

	pos := 0
	for _, word := range result.Words {
		if word.StartOffset < pos || word.EndOffset > len(runes) {
			continue
		}
		b.WriteString(string(runes[pos:word.StartOffset]))
		span := string(runes[word.StartOffset:word.EndOffset])
		switch classify(word) {
		case itemstore.KnowledgeKnown:
			b.WriteString(knownColor.Sprint(span))
		case itemstore.KnowledgeMemorizing:
			b.WriteString(memorizingColor.Sprint(span))
		case itemstore.KnowledgeLearning:
			b.WriteString(learningColor.Sprint(span))
		default:
			b.WriteString(unknownColor.Sprint(span))
		}
		pos = word.EndOffset
	}
	b.WriteString(string(runes[pos:]))

	line := fmt.Sprintf("%s  [%s]", b.String(), result.Item.Hash)
	if result.Item.Pronunciation != "" {
		line += "\n  " + result.Item.Pronunciation
	}
	if result.Item.Meaning != "" {
		line += "\n  " + result.Item.Meaning
	}
	line += fmt.Sprintf("\n  unknown: %d, learning: %d, memorizing: %d, known: %d",
		result.Item.NumUnknown, result.Item.NumLearning, result.Item.NumMemorizing, result.Item.NumKnown)
	return line
}
