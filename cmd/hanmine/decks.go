package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hanmine/hanmine/internal/collection"
	"github.com/hanmine/hanmine/internal/database"
)

func newDecksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "decks",
		Short: "List the collection's decks and their configured roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.CollectionPath == "" {
				return fmt.Errorf("no collection configured. Run 'hanmine config set --collection PATH' first")
			}

			db, err := database.Open(cfg.CollectionPath)
			if err != nil {
				return fmt.Errorf("database.Open() > %w", err)
			}
			defer func() {
				_ = db.Close()
			}()

			decks, err := collection.NewDBCollection(db).Decks(cmd.Context())
			if err != nil {
				return fmt.Errorf("col.Decks() > %w", err)
			}
			if len(decks) == 0 {
				fmt.Println("The collection has no decks.")
				return nil
			}

			roles := map[string][]string{}
			for _, name := range cfg.Decks.Sentence {
				roles[name] = append(roles[name], "sentence")
			}
			for _, name := range cfg.Decks.ActiveVocabulary {
				roles[name] = append(roles[name], "active")
			}
			for _, name := range cfg.Decks.KnownVocabulary {
				roles[name] = append(roles[name], "known")
			}

			for _, deck := range decks {
				line := deck.Name
				if r, ok := roles[deck.Name]; ok {
					line += " (" + strings.Join(r, ", ") + ")"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
