package wordle

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed words.txt
var embeddedWords string

// Dictionary decides which guesses are real words.
type Dictionary interface {
	IsValidWord(word string) bool
}

// WordList is a Dictionary backed by an in-memory set. It is read-only after
// construction and safe for concurrent use.
type WordList struct {
	words map[string]bool
}

// NewWordList builds a list from words. Entries that are not five letters
// are skipped.
func NewWordList(words ...string) *WordList {
	wl := &WordList{words: make(map[string]bool, len(words))}
	for _, w := range words {
		wl.add(w)
	}
	return wl
}

func (wl *WordList) add(w string) {
	if w = Canonical(w); ValidFormat(w) {
		wl.words[w] = true
	}
}

// ReadWordList reads one word per line from r. Blank lines and lines
// starting with # are ignored.
func ReadWordList(r io.Reader) (*WordList, error) {
	wl := &WordList{words: make(map[string]bool)}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		wl.add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading word list: %w", err)
	}
	return wl, nil
}

// LoadWordList reads a word list file.
func LoadWordList(path string) (*WordList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening word list: %w", err)
	}
	defer f.Close()
	return ReadWordList(f)
}

// DefaultDictionary returns the built-in word list. Every fallback daily
// word is included.
func DefaultDictionary() *WordList {
	wl, err := ReadWordList(strings.NewReader(embeddedWords))
	if err != nil {
		// strings.Reader never fails
		panic(err)
	}
	for _, w := range FallbackWords() {
		wl.add(w)
	}
	return wl
}

// OpenDictionary returns the file at path when set, the built-in list
// otherwise.
func OpenDictionary(path string) (*WordList, error) {
	if path == "" {
		return DefaultDictionary(), nil
	}
	wl, err := LoadWordList(path)
	if err != nil {
		return nil, err
	}
	if wl.Size() == 0 {
		return nil, fmt.Errorf("word list %s has no five-letter words", path)
	}
	return wl, nil
}

// IsValidWord reports whether word, in any case, is in the list.
func (wl *WordList) IsValidWord(word string) bool {
	if word == "" {
		return false
	}
	return wl.words[Canonical(word)]
}

// Size returns the number of words.
func (wl *WordList) Size() int {
	return len(wl.words)
}
