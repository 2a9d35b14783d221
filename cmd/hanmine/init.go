package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Rebuild the item store from the dictionary and the sentence decks",
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

			stats, err := env.store.Initialize(cmd.Context(),
				env.cfg.Decks.Sentence,
				env.cfg.Decks.ActiveVocabulary,
				env.cfg.Decks.KnownVocabulary,
			)
			if err != nil {
				return fmt.Errorf("store.Initialize() > %w", err)
			}

			fmt.Println("Item store rebuilt.")
			printUpdateStats(stats)
			return nil
		},
	}
}
