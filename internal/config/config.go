// Package config loads and persists the application configuration: file
// locations, deck role assignments, and the user's completed acquisition
// tier.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	CollectionPath string           `mapstructure:"collection_path" validate:"omitempty,file"`
	StorePath      string           `mapstructure:"store_path"`
	Dictionary     DictionaryConfig `mapstructure:"dictionary"`
	Decks          DecksConfig      `mapstructure:"decks"`
	CompletedTier  int              `mapstructure:"completed_tier" validate:"min=0,max=6"`
}

type DictionaryConfig struct {
	SourcePath        string `mapstructure:"source_path" validate:"omitempty,file"`
	CacheDirectory    string `mapstructure:"cache_directory"`
	TierListDirectory string `mapstructure:"tier_list_directory" validate:"omitempty,dir"`
}

// DecksConfig assigns collection decks to their roles. Sentence decks feed
// the candidate pool, active vocabulary decks carry the words under study,
// known vocabulary decks hold words counted as fully known.
type DecksConfig struct {
	Sentence         []string `mapstructure:"sentence"`
	ActiveVocabulary []string `mapstructure:"active_vocabulary"`
	KnownVocabulary  []string `mapstructure:"known_vocabulary"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
	configFile string
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/hanmine")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
		configFile: configFile,
	}, nil
}

// Load reads the configuration file, or returns the defaults when no file
// exists yet.
func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	dataDir := ".hanmine"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".config", "hanmine")
	}
	v.SetDefault("collection_path", "")
	v.SetDefault("store_path", filepath.Join(dataDir, "items.sqlite"))
	v.SetDefault("dictionary.source_path", "")
	v.SetDefault("dictionary.cache_directory", filepath.Join(dataDir, "cache"))
	v.SetDefault("dictionary.tier_list_directory", "")
	v.SetDefault("decks.sentence", []string{})
	v.SetDefault("decks.active_vocabulary", []string{})
	v.SetDefault("decks.known_vocabulary", []string{})
	v.SetDefault("completed_tier", 0)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if os.IsNotExist(err) {
				// An explicit --config path that does not exist yet still
				// yields the defaults, so the first run can save into it.
				return loader.unmarshal()
			}
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	return loader.unmarshal()
}

func (loader *ConfigLoader) unmarshal() (*Config, error) {
	var cfg Config
	if err := loader.viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}
	return &cfg, nil
}

// Save writes the configuration back to the file it was loaded from, or to
// the default location when no explicit file was given. Parent directories
// are created as needed.
func (loader *ConfigLoader) Save(cfg *Config) error {
	if err := loader.validator.Struct(*cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	path := loader.configFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("os.UserHomeDir() > %w", err)
		}
		path = filepath.Join(home, ".config", "hanmine", "config.json")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll() > %w", err)
	}

	v := loader.viper
	v.Set("collection_path", cfg.CollectionPath)
	v.Set("store_path", cfg.StorePath)
	v.Set("dictionary.source_path", cfg.Dictionary.SourcePath)
	v.Set("dictionary.cache_directory", cfg.Dictionary.CacheDirectory)
	v.Set("dictionary.tier_list_directory", cfg.Dictionary.TierListDirectory)
	v.Set("decks.sentence", cfg.Decks.Sentence)
	v.Set("decks.active_vocabulary", cfg.Decks.ActiveVocabulary)
	v.Set("decks.known_vocabulary", cfg.Decks.KnownVocabulary)
	v.Set("completed_tier", cfg.CompletedTier)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("viper.WriteConfigAs() > %w", err)
	}
	return nil
}
