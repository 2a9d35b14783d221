package cedict

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadTierLists reads the acquisition word-lists HSK1.txt .. HSK6.txt from
// dir and returns a map from simplified headword to its lowest tier.
// An empty dir, or a missing level file, contributes no words. Words listed
// at several levels keep the lowest one.
func LoadTierLists(dir string) (map[string]Tier, error) {
	tiers := map[string]Tier{}
	if dir == "" {
		return tiers, nil
	}

	for lvl := Tier(1); lvl <= MaxTier; lvl++ {
		path := filepath.Join(dir, fmt.Sprintf("HSK%d.txt", lvl))
		file, err := os.Open(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("os.Open(%s) > %w", path, err)
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" {
				continue
			}
			if _, ok := tiers[word]; !ok {
				tiers[word] = lvl
			}
		}
		scanErr := scanner.Err()
		if closeErr := file.Close(); closeErr != nil && scanErr == nil {
			scanErr = closeErr
		}
		if scanErr != nil {
			return nil, fmt.Errorf("reading %s > %w", path, scanErr)
		}
	}

	return tiers, nil
}
