package redact

import (
	"strings"
	"testing"
)

func TestApply(t *testing.T) {
	r := New(true, []string{"email", "phone", "credit_card"})

	tests := []struct {
		name    string
		in      string
		gone    string
		wantTag string
	}{
		{"email", "Contact alice.johnson@innovate.example for details", "alice.johnson@innovate.example", "[EMAIL:"},
		{"phone", "Call 555-123-4567 after lunch", "555-123-4567", "[PHONE:"},
		{"card", "Card 4111 1111 1111 1111 was charged", "4111 1111 1111 1111", "[CC:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Apply(tt.in)
			if strings.Contains(got, tt.gone) {
				t.Errorf("value not masked: %q", got)
			}
			if !strings.Contains(got, tt.wantTag) {
				t.Errorf("expected %s placeholder in %q", tt.wantTag, got)
			}
		})
	}
}

func TestApplyIsStable(t *testing.T) {
	r := New(true, []string{"email"})

	a := r.Apply("from bob@example.com")
	b := r.Apply("cc bob@example.com and carol@example.com")

	ph := strings.TrimPrefix(a, "from ")
	if !strings.Contains(b, ph) {
		t.Errorf("same value should map to same placeholder: %q vs %q", a, b)
	}
	if r.Masked() != 2 {
		t.Errorf("Masked() = %d, want 2", r.Masked())
	}
}

func TestDisabled(t *testing.T) {
	in := "mail bob@example.com"
	if got := New(false, nil).Apply(in); got != in {
		t.Errorf("disabled redactor changed text: %q", got)
	}

	var r *Redactor
	if got := r.Apply(in); got != in || r.Enabled() || r.Masked() != 0 {
		t.Error("nil redactor should be a no-op")
	}
}

func TestUnknownNamesFallBackToDefaults(t *testing.T) {
	r := New(true, []string{"nope"})
	if got := r.Apply("x@y.io"); got == "x@y.io" {
		t.Error("default patterns should apply")
	}
}

func TestPlainTextUntouched(t *testing.T) {
	r := New(true, Names())
	in := "A 6-week sales leadership program for managers"
	if got := r.Apply(in); got != in {
		t.Errorf("ordinary text changed: %q", got)
	}
}
