package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPromoteCommand() *cobra.Command {
	var (
		deckName  string
		modelName string
	)

	command := &cobra.Command{
		Use:   "promote HASH",
		Short: "Turn a candidate sentence into a new note in a deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer func() {
				_ = env.Close()
			}()

			noteID, err := env.store.Promote(cmd.Context(), args[0], deckName, modelName)
			if err != nil {
				return fmt.Errorf("store.Promote() > %w", err)
			}
			fmt.Printf("Created note %d in deck %q.\n", noteID, deckName)
			return nil
		},
	}
	flags := command.Flags()
	flags.StringVar(&deckName, "deck", "", "Deck to create the note in")
	flags.StringVar(&modelName, "model", "", "Note type for the new note")
	_ = command.MarkFlagRequired("deck")
	_ = command.MarkFlagRequired("model")
	return command
}

func newMarkKnownCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-known HASH",
		Short: "Mark every card of an item's linked notes as known",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer func() {
				_ = env.Close()
			}()

			if err := env.store.MarkKnown(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("store.MarkKnown() > %w", err)
			}
			fmt.Println("Marked as known. Run 'hanmine update' to refresh the aggregates.")
			return nil
		},
	}
}
