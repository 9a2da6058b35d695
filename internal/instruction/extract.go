// Package instruction extracts the search tokens an agent is allowed to
// use while processing one free-text editing instruction. The extraction
// is deliberately permissive: over-inclusion is safe, under-inclusion
// blocks legitimate work.
package instruction

import (
	"regexp"
	"strings"
)

// minWordLen is the shortest word worth allow-listing on its own.
const minWordLen = 4

var (
	numberedRefPattern = regexp.MustCompile(`\d+\.\d+`)

	// Both straight and curly quote styles.
	quotedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"([^"]+)"`),
		regexp.MustCompile(`'([^']+)'`),
		regexp.MustCompile(`\x{201c}([^\x{201d}]+)\x{201d}`),
		regexp.MustCompile(`\x{2018}([^\x{2019}]+)\x{2019}`),
	}

	// Numbered references following an action verb or "paragraph".
	actionRefPattern = regexp.MustCompile(`(?i)(?:delete|substitute|replace|insert|add|paragraph)\s+(?:paragraph\s+)?(\d+(?:\.\d+)*)`)

	// Free text following "before" or "after", up to clause punctuation.
	positionPattern = regexp.MustCompile(`(?i)\b(?:before|after)\s+([^.,;:]+)`)

	// Replacement text after a "substitute ... :" clause. The agent must
	// be allowed to search for wording it is about to insert.
	substitutePattern = regexp.MustCompile(`(?i)substitute[^:]*:\s*(.+)`)

	// Letter-hyphen-number article references.
	articleRefPattern = regexp.MustCompile(`(?i)\b[A-Za-z]-\d+\b`)
)

// ExtractTokens pulls allow-listed search tokens out of a free-text
// instruction. Tokens are lower-cased and deduplicated. The result is a
// superset of every quoted substring and numbered reference literally
// present in the instruction.
func ExtractTokens(instruction string) map[string]struct{} {
	tokens := make(map[string]struct{})
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			tokens[s] = struct{}{}
		}
	}
	addPhrase := func(s string) {
		add(s)
		for _, w := range strings.Fields(s) {
			w = strings.Trim(w, `.,;:"'`)
			if len(w) >= minWordLen {
				add(w)
			}
		}
	}

	for _, ref := range numberedRefPattern.FindAllString(instruction, -1) {
		add(ref)
	}

	for _, re := range quotedPatterns {
		for _, m := range re.FindAllStringSubmatch(instruction, -1) {
			addPhrase(m[1])
		}
	}

	for _, m := range actionRefPattern.FindAllStringSubmatch(instruction, -1) {
		add(m[1])
	}

	for _, m := range positionPattern.FindAllStringSubmatch(instruction, -1) {
		addPhrase(m[1])
	}

	if m := substitutePattern.FindStringSubmatch(instruction); m != nil {
		addPhrase(m[1])
	}

	for _, ref := range articleRefPattern.FindAllString(instruction, -1) {
		add(ref)
	}

	return tokens
}
