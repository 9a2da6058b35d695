// Package guard enforces the two ordering invariants of the edit engine:
// every mutation must be preceded by a fresh read, and every search term
// must be grounded in the current instruction's allow-list.
package guard

import (
	"fmt"
	"regexp"
	"strings"
)

// numberedLabelPattern matches locators that are bare numbered-paragraph
// labels like "1.2". Such labels are unambiguous positional keys and are
// exempt from the fresh-read requirement.
var numberedLabelPattern = regexp.MustCompile(`^\s*\d+\.\d+\s*$`)

// labelVariantFormats are the punctuation/whitespace spellings a numbered
// label may take inside a read query.
var labelVariantFormats = []string{"%s", "%s.", "%s:", "%s;", "%s)", "(%s)", "%s "}

// ViolationError reports a blocked mutation. It is recoverable: the
// caller performs the missing read and retries.
type ViolationError struct {
	Action string
	Hint   string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s blocked: %s", e.Action, e.Hint)
}

// Guard is per-instruction state. Construct a fresh Guard for every
// instruction; never share one across instructions or documents.
type Guard struct {
	hasFreshRead bool
	lastQuery    string
	allowed      map[string]struct{}
}

// New creates a guard with the instruction's allow-listed tokens. A nil
// or empty allow-list disables token checking but not the fresh-read
// rule.
func New(allowed map[string]struct{}) *Guard {
	return &Guard{allowed: allowed}
}

// IsNumberedLabel reports whether the locator is a bare "N.N" label.
func IsNumberedLabel(locator string) bool {
	return numberedLabelPattern.MatchString(locator)
}

// CheckRead reports whether the query is grounded in the instruction.
// Wildcard queries are rejected once an allow-list exists: a wildcard
// bypasses scoping and must never satisfy the guard.
func (g *Guard) CheckRead(query string) bool {
	if len(g.allowed) == 0 {
		return true
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "*" || q == "all" {
		return false
	}
	for token := range g.allowed {
		if strings.Contains(q, token) || strings.Contains(token, q) {
			return true
		}
		if IsNumberedLabel(token) && matchesLabelVariant(q, strings.TrimSpace(token)) {
			return true
		}
		if strings.ContainsRune(token, ' ') && sharesLongWord(q, token) {
			return true
		}
	}
	return false
}

// MarkRead records a successful read. The next mutation is permitted.
func (g *Guard) MarkRead(query string) {
	g.hasFreshRead = true
	g.lastQuery = query
}

// HasFreshRead reports whether a read happened since the last mutation.
func (g *Guard) HasFreshRead() bool { return g.hasFreshRead }

// LastQuery returns the most recent successful read query.
func (g *Guard) LastQuery() string { return g.lastQuery }

// CheckMutate enforces read-before-write for the named action. Numbered
// labels are exempt. On success the fresh read is consumed: no two
// mutations may share one read.
func (g *Guard) CheckMutate(action, locator string) error {
	if !g.hasFreshRead && !IsNumberedLabel(locator) {
		return &ViolationError{
			Action: action,
			Hint:   "read the target section first so the location is current",
		}
	}
	return nil
}

// MarkMutated records a completed mutation, forcing a new read before
// the next one.
func (g *Guard) MarkMutated() {
	g.hasFreshRead = false
}

func matchesLabelVariant(query, label string) bool {
	for _, format := range labelVariantFormats {
		v := fmt.Sprintf(format, label)
		if query == strings.TrimSpace(v) || strings.Contains(query, v) {
			return true
		}
	}
	return false
}

// sharesLongWord reports whether the query and a multi-word token have a
// word of at least four characters in common.
func sharesLongWord(query, token string) bool {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(token) {
		if len(w) >= 4 {
			words[w] = struct{}{}
		}
	}
	for _, w := range strings.Fields(query) {
		if len(w) < 4 {
			continue
		}
		if _, ok := words[strings.Trim(w, `.,;:"'`)]; ok {
			return true
		}
	}
	return false
}
