package codenames

import (
	"bufio"
	_ "embed"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

//go:embed words.txt
var builtinWords string

// WordSource supplies candidate words for a deck.
type WordSource interface {
	Words() []string
}

// StaticWords is a fixed word list.
type StaticWords []string

func (w StaticWords) Words() []string {
	return w
}

// DefaultWords returns the built-in word list.
func DefaultWords() StaticWords {
	words, _ := readWords(strings.NewReader(builtinWords))
	return words
}

// LoadWordsFile reads a newline-separated word list. Blank lines and lines
// starting with # are skipped.
func LoadWordsFile(path string) (StaticWords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	words, err := readWords(f)
	if err != nil {
		return nil, err
	}
	if len(words) < GridSize {
		return nil, ErrNotEnoughWords
	}
	return words, nil
}

func readWords(r io.Reader) (StaticWords, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return StaticWords(dedupeWords(lines)), nil
}

// dedupeWords trims every entry and drops empties and repeats, keeping order.
func dedupeWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// normalizeCustomWords validates a host-supplied word list.
func normalizeCustomWords(words []string) ([]string, error) {
	out := dedupeWords(words)
	for _, w := range out {
		if utf8.RuneCountInString(w) > MaxWordLength {
			return nil, ErrInvalidWord
		}
	}
	if len(out) < GridSize {
		return nil, ErrNotEnoughWords
	}
	return out, nil
}
