// Package words ships the wordlist packs charlatan rounds draw from.
// Packs are compiled in; a room picks one by name through its settings.
package words

import (
	"bufio"
	"embed"
	"fmt"
	"strings"
)

//go:embed packs/*.txt
var packFS embed.FS

// Source resolves named packs. Satisfies game.WordSource.
type Source struct{}

func NewSource() *Source {
	return &Source{}
}

// Pack returns the words of the named pack, one per line in the fixture,
// blank lines skipped.
func (s *Source) Pack(name string) ([]string, error) {
	f, err := packFS.Open("packs/" + name + ".txt")
	if err != nil {
		return nil, fmt.Errorf("unknown wordlist pack %q", name)
	}
	defer f.Close()

	var list []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}
		list = append(list, word)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading wordlist pack %q: %w", name, err)
	}
	return list, nil
}
