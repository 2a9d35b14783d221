package itemstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// ContentHash canonicalizes content as compact JSON and returns the first
// 8 bytes of its SHA-256 digest as lowercase hex, together with the
// canonical form itself. The encoding is stable across runs and platforms,
// so identical content always addresses the same item.
func ContentHash(content []any) (string, string, error) {
	canonical, err := json.Marshal(content)
	if err != nil {
		return "", "", fmt.Errorf("json.Marshal() > %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:8]), string(canonical), nil
}

// sentenceContent is the canonical content of a sentence item. The leading
// null slot keeps sentence hashes from ever colliding with word hashes,
// whose canonical form starts with a non-null spelling.
func sentenceContent(text, pronunciation, meaning string) []any {
	return []any{nil, text, pronunciation, meaning}
}
