// Package moderation masks censored words inside chat messages before they
// are fanned out. Matching is resilient to casing, punctuation noise and
// common leet-speak substitutions; masking preserves the original length
// and spacing of the message.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// textMapping links the normalized search text back to original rune
// positions so masking can target the exact characters that matched.
type textMapping struct {
	normalized []rune
	origIdx    []int
}

// NewModerator builds the Aho-Corasick automaton over the normalized word
// list. The replacement rune overwrites every matched character.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i] = normalize([]rune(word))
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: machine, replacement: replacement}, nil
}

// Censor masks every censored word in the message and reports whether
// anything matched. A clean message is returned untouched.
func (m *Moderator) Censor(message string) (string, bool) {
	mapping := m.mapText(message)
	if len(mapping.normalized) == 0 {
		return message, false
	}

	spans := m.matcher.MultiPatternSearch(mapping.normalized, false)
	if len(spans) == 0 {
		return message, false
	}

	runes := []rune(message)
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(mapping.origIdx) {
			continue
		}
		// span bounds are in normalized space, mask in original space
		from := mapping.origIdx[start]
		to := mapping.origIdx[end-1] + 1
		for i := from; i < to; i++ {
			runes[i] = m.replacement
		}
	}
	return string(runes), true
}

func (m *Moderator) mapText(input string) textMapping {
	origRunes := []rune(input)
	mapping := textMapping{
		normalized: make([]rune, 0, len(origRunes)),
		origIdx:    make([]int, 0, len(origRunes)),
	}
	for i, r := range origRunes {
		simple := simplify(r)
		if isNoise(simple) {
			continue
		}
		mapping.normalized = append(mapping.normalized, unicode.ToLower(simple))
		mapping.origIdx = append(mapping.origIdx, i)
	}
	return mapping
}

func normalize(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		simple := simplify(r)
		if isNoise(simple) {
			continue
		}
		out = append(out, unicode.ToLower(simple))
	}
	return out
}

// simplify maps common leet-speak characters back to their letters.
func simplify(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
