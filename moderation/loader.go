package moderation

import (
	"bufio"
	"embed"
	"fmt"
	"strings"

	"room-relay/errors"
)

//go:embed words/*.txt
var wordFiles embed.FS

// LoadWords reads the embedded censored word lists, one word per line.
// Blank lines and '#' comments are skipped, duplicates across language
// files are collapsed.
func LoadWords() ([]string, error) {
	entries, err := wordFiles.ReadDir("words")
	if err != nil {
		return nil, fmt.Errorf("read embedded word lists: %w", err)
	}

	seen := make(map[string]struct{})
	var words []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file, err := wordFiles.Open("words/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("open word list %s: %w", entry.Name(), err)
		}
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			word := strings.TrimSpace(scanner.Text())
			if word == "" || strings.HasPrefix(word, "#") {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			words = append(words, word)
		}
		_ = file.Close()
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("scan word list %s: %w", entry.Name(), err)
		}
	}

	if len(words) == 0 {
		return nil, errors.ErrEmptyWords
	}
	return words, nil
}
