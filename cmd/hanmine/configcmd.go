package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Role names which job a deck list serves.
type Role string

func (r *Role) Set(val string) error {
	for _, role := range allRoles {
		if val == string(role) {
			*r = role
			return nil
		}
	}
	return fmt.Errorf("invalid role: %s", val)
}

func (r Role) String() string {
	return string(r)
}

func (r *Role) Type() string {
	return "Role"
}

const (
	RoleSentence Role = "sentence"
	RoleActive   Role = "active"
	RoleKnown    Role = "known"
)

var (
	_        pflag.Value = (*Role)(nil)
	allRoles             = []Role{RoleSentence, RoleActive, RoleKnown}
)

func newConfigCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Show and change the configuration",
	}
	command.AddCommand(
		newConfigShowCommand(),
		newConfigSetCommand(),
		newConfigDecksCommand(),
	)
	return command
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			fmt.Printf("collection:          %s\n", cfg.CollectionPath)
			fmt.Printf("item store:          %s\n", cfg.StorePath)
			fmt.Printf("dictionary:          %s\n", cfg.Dictionary.SourcePath)
			fmt.Printf("dictionary cache:    %s\n", cfg.Dictionary.CacheDirectory)
			fmt.Printf("tier lists:          %s\n", cfg.Dictionary.TierListDirectory)
			fmt.Printf("sentence decks:      %s\n", strings.Join(cfg.Decks.Sentence, ", "))
			fmt.Printf("active vocab decks:  %s\n", strings.Join(cfg.Decks.ActiveVocabulary, ", "))
			fmt.Printf("known vocab decks:   %s\n", strings.Join(cfg.Decks.KnownVocabulary, ", "))
			fmt.Printf("completed tier:      %d\n", cfg.CompletedTier)
			return nil
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	var (
		collectionPath string
		storePath      string
		dictionaryPath string
		cacheDirectory string
		tierListDir    string
		completedTier  int
	)

	command := &cobra.Command{
		Use:   "set",
		Short: "Change file locations and the completed tier",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := newLoader()
			if err != nil {
				return err
			}
			cfg, err := loader.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			if cmd.Flags().Changed("collection") {
				cfg.CollectionPath = collectionPath
			}
			if cmd.Flags().Changed("store") {
				cfg.StorePath = storePath
			}
			if cmd.Flags().Changed("dictionary") {
				cfg.Dictionary.SourcePath = dictionaryPath
			}
			if cmd.Flags().Changed("cache-dir") {
				cfg.Dictionary.CacheDirectory = cacheDirectory
			}
			if cmd.Flags().Changed("tier-lists") {
				cfg.Dictionary.TierListDirectory = tierListDir
			}
			if cmd.Flags().Changed("completed-tier") {
				cfg.CompletedTier = completedTier
			}

			if err := loader.Save(cfg); err != nil {
				return fmt.Errorf("loader.Save() > %w", err)
			}
			fmt.Println("Configuration saved.")
			return nil
		},
	}
	flags := command.Flags()
	flags.StringVar(&collectionPath, "collection", "", "Path to the flashcard collection database")
	flags.StringVar(&storePath, "store", "", "Path to the item-store database")
	flags.StringVar(&dictionaryPath, "dictionary", "", "Path to the dictionary source file")
	flags.StringVar(&cacheDirectory, "cache-dir", "", "Directory for the parsed-dictionary cache")
	flags.StringVar(&tierListDir, "tier-lists", "", "Directory holding the acquisition tier word lists")
	flags.IntVar(&completedTier, "completed-tier", 0, "Highest tier the user has completed (0-6)")
	return command
}

func newConfigDecksCommand() *cobra.Command {
	role := RoleSentence

	command := &cobra.Command{
		Use:   "decks [DECK...]",
		Short: "Assign decks to a role. An empty list clears the role",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := newLoader()
			if err != nil {
				return err
			}
			cfg, err := loader.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			switch role {
			case RoleSentence:
				cfg.Decks.Sentence = args
			case RoleActive:
				cfg.Decks.ActiveVocabulary = args
			case RoleKnown:
				cfg.Decks.KnownVocabulary = args
			}

			if err := loader.Save(cfg); err != nil {
				return fmt.Errorf("loader.Save() > %w", err)
			}
			fmt.Println("Configuration saved.")
			return nil
		},
	}
	command.Flags().Var(&role, "role", fmt.Sprintf("Deck role to assign. Possible values are %v", allRoles))
	return command
}
