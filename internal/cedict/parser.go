package cedict

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// lineFormat matches one dictionary source line:
// TRADITIONAL SIMPLIFIED [PINYIN] /GLOSS1/GLOSS2/.../
var lineFormat = regexp.MustCompile(`^(\S+) (\S+) \[([^\]]*)\] /(.*)/\s*$`)

const crossReferencePrefix = "see also "

// Parse reads a dictionary source and returns its entries, with lines
// sharing a (traditional, simplified) spelling pair merged into one entry.
// Comment lines start with '#'. Any other non-blank line that does not match
// the four-field format is a fatal parse error: a partially loaded
// dictionary would silently corrupt segmentation downstream.
func Parse(r io.Reader) ([]Entry, error) {
	var (
		entries []Entry
		byPair  = map[string]int{}
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		m := lineFormat.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("line %d: malformed dictionary line %q", lineNo, line)
		}
		trad, simp, pinyin := m[1], m[2], m[3]

		var glosses []string
		for _, g := range strings.Split(m[4], "/") {
			if g == "" || strings.HasPrefix(g, crossReferencePrefix) {
				continue
			}
			glosses = append(glosses, g)
		}

		reading := Reading{Pinyin: pinyin, Glosses: glosses}
		key := trad + "\x00" + simp
		if idx, ok := byPair[key]; ok {
			entries[idx].Readings = append(entries[idx].Readings, reading)
			continue
		}
		byPair[key] = len(entries)
		entries = append(entries, Entry{
			Traditional: trad,
			Simplified:  simp,
			Readings:    []Reading{reading},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner.Err() > %w", err)
	}

	return entries, nil
}
