package moderation

import "strings"

// leetSubstitutions maps digits and symbols commonly used in place of letters.
var leetSubstitutions = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'@': 'a',
	'$': 's',
	'3': 'e',
	'4': 'a',
	'5': 's',
	'8': 'b',
}

// strippedSeparators are dropped outright ("fu.ck", "f_u_c_k", "f*ck").
const strippedSeparators = "._-!*#"

// maxRun is the longest run of one character Normalize keeps.
const maxRun = 2

// Normalize canonicalizes text for lexical matching: lowercase, leetspeak
// undone, separators stripped and runs of three or more identical characters
// collapsed to two. Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if sub, ok := leetSubstitutions[r]; ok {
			b.WriteRune(sub)
			continue
		}
		if strings.ContainsRune(strippedSeparators, r) {
			continue
		}
		b.WriteRune(r)
	}
	return collapseRuns(b.String(), maxRun)
}

// collapseRuns keeps at most limit consecutive copies of any rune.
func collapseRuns(s string, limit int) string {
	var b strings.Builder
	b.Grow(len(s))

	run := 0
	prev := rune(-1)
	for _, r := range s {
		if r == prev {
			run++
		} else {
			run = 1
			prev = r
		}
		if run <= limit {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// squeeze collapses every run to a single character. It is only used to
// compare against squeezed denylist terms, never as the canonical form.
func squeeze(s string) string {
	return collapseRuns(s, 1)
}
