package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Pull review progress from the vocabulary decks into the item store",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer func() {
				_ = env.Close()
			}()

			stats, err := env.store.Update(cmd.Context(),
				env.cfg.Decks.ActiveVocabulary,
				env.cfg.Decks.KnownVocabulary,
			)
			if err != nil {
				return fmt.Errorf("store.Update() > %w", err)
			}

			printUpdateStats(stats)
			return nil
		},
	}
}
