package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoaderLoad(t *testing.T) {
	collectionFile := filepath.Join(t.TempDir(), "collection.sqlite")
	require.NoError(t, os.WriteFile(collectionFile, []byte("x"), 0o644))
	tierListDir := t.TempDir()

	tests := []struct {
		name              string
		configContent     string
		want              func(t *testing.T, cfg *Config)
		wantErrorContains []string
	}{
		{
			name: "full config file",
			configContent: `{
				"collection_path": "` + collectionFile + `",
				"store_path": "/data/items.sqlite",
				"dictionary": {
					"cache_directory": "/data/cache",
					"tier_list_directory": "` + tierListDir + `"
				},
				"decks": {
					"sentence": ["Sentences"],
					"active_vocabulary": ["Vocabulary"],
					"known_vocabulary": ["Known"]
				},
				"completed_tier": 3
			}`,
			want: func(t *testing.T, cfg *Config) {
				assert.Equal(t, collectionFile, cfg.CollectionPath)
				assert.Equal(t, "/data/items.sqlite", cfg.StorePath)
				assert.Equal(t, "/data/cache", cfg.Dictionary.CacheDirectory)
				assert.Equal(t, []string{"Sentences"}, cfg.Decks.Sentence)
				assert.Equal(t, []string{"Vocabulary"}, cfg.Decks.ActiveVocabulary)
				assert.Equal(t, []string{"Known"}, cfg.Decks.KnownVocabulary)
				assert.Equal(t, 3, cfg.CompletedTier)
			},
		},
		{
			name:          "empty file falls back to defaults",
			configContent: `{}`,
			want: func(t *testing.T, cfg *Config) {
				assert.Empty(t, cfg.CollectionPath)
				assert.NotEmpty(t, cfg.StorePath)
				assert.Empty(t, cfg.Decks.Sentence)
				assert.Equal(t, 0, cfg.CompletedTier)
			},
		},
		{
			name:              "malformed JSON",
			configContent:     `{"collection_path": [[[`,
			wantErrorContains: []string{"could not be read"},
		},
		{
			name: "completed tier out of range",
			configContent: `{
				"completed_tier": 7
			}`,
			wantErrorContains: []string{"invalid configuration", "completed_tier"},
		},
		{
			name: "collection path not a file",
			configContent: `{
				"collection_path": "/no/such/collection.sqlite"
			}`,
			wantErrorContains: []string{"invalid configuration", "collection_path"},
		},
		{
			name: "tier list directory missing",
			configContent: `{
				"dictionary": {
					"tier_list_directory": "/no/such/tiers"
				}
			}`,
			wantErrorContains: []string{"invalid configuration", "tier_list_directory", "existing directory"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			configFile := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(configFile, []byte(tc.configContent), 0o644))

			loader, err := NewConfigLoader(configFile)
			require.NoError(t, err)

			cfg, err := loader.Load()
			if len(tc.wantErrorContains) > 0 {
				require.Error(t, err)
				for _, want := range tc.wantErrorContains {
					assert.ErrorContains(t, err, want)
				}
				return
			}
			require.NoError(t, err)
			tc.want(t, cfg)
		})
	}
}

func TestConfigLoaderLoadMissingFile(t *testing.T) {
	loader, err := NewConfigLoader(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.CollectionPath)
	assert.Equal(t, 0, cfg.CompletedTier)
}

func TestConfigLoaderSave(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "nested", "config.json")

	loader, err := NewConfigLoader(configFile)
	require.NoError(t, err)
	cfg, err := loader.Load()
	require.NoError(t, err)

	cfg.Decks.Sentence = []string{"Sentences"}
	cfg.CompletedTier = 2
	require.NoError(t, loader.Save(cfg))

	reloader, err := NewConfigLoader(configFile)
	require.NoError(t, err)
	got, err := reloader.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Sentences"}, got.Decks.Sentence)
	assert.Equal(t, 2, got.CompletedTier)
}

func TestConfigLoaderSaveRejectsInvalid(t *testing.T) {
	loader, err := NewConfigLoader(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	cfg, err := loader.Load()
	require.NoError(t, err)

	cfg.CompletedTier = 9
	assert.ErrorContains(t, loader.Save(cfg), "completed_tier")
}
