// Package redact masks personal data in free text before it is sent to a
// model provider.
//
// Placeholders are stable: the same value always becomes the same
// placeholder, so the model can still tell that two mentions refer to the
// same thing.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// Redactor replaces matches of its patterns with placeholders. A nil or
// disabled Redactor returns text unchanged.
type Redactor struct {
	enabled  bool
	patterns []Pattern

	mu     sync.RWMutex
	seen   map[string]string
	masked int
}

// New returns a Redactor for the named patterns. An empty list selects
// DefaultPatterns.
func New(enabled bool, names []string) *Redactor {
	ps := lookup(names)
	if len(ps) == 0 {
		ps = lookup(DefaultPatterns())
	}
	return &Redactor{enabled: enabled, patterns: ps, seen: make(map[string]string)}
}

// Enabled reports whether Apply changes text.
func (r *Redactor) Enabled() bool {
	return r != nil && r.enabled
}

// Apply returns text with every match replaced.
func (r *Redactor) Apply(text string) string {
	if !r.Enabled() {
		return text
	}
	for _, p := range r.patterns {
		text = p.Regex.ReplaceAllStringFunc(text, func(match string) string {
			return r.placeholder(match, p.Label)
		})
	}
	return text
}

// Masked returns how many distinct values have been replaced so far.
func (r *Redactor) Masked() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.masked
}

func (r *Redactor) placeholder(value, label string) string {
	r.mu.RLock()
	ph, ok := r.seen[value]
	r.mu.RUnlock()
	if ok {
		return ph
	}

	h := sha256.Sum256([]byte(value))
	ph = fmt.Sprintf("[%s:%s]", label, hex.EncodeToString(h[:2]))

	r.mu.Lock()
	if _, ok := r.seen[value]; !ok {
		r.seen[value] = ph
		r.masked++
	}
	r.mu.Unlock()
	return ph
}
