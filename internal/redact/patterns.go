package redact

import "regexp"

// Pattern is one kind of personal or secret data that can be masked.
type Pattern struct {
	Name  string
	Regex *regexp.Regexp
	// Label prefixes the placeholder: [EMAIL:1a2b].
	Label string
}

var patterns = map[string]Pattern{
	"email": {
		Name:  "email",
		Regex: regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		Label: "EMAIL",
	},
	"phone": {
		Name:  "phone",
		Regex: regexp.MustCompile(`(?:\+\d{1,3}[\s.-]?)?\(?\d{3}\)?[\s.-]\d{3}[\s.-]\d{4}\b`),
		Label: "PHONE",
	},
	"ipv4": {
		Name:  "ipv4",
		Regex: regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`),
		Label: "IPV4",
	},
	"credit_card": {
		Name:  "credit_card",
		Regex: regexp.MustCompile(`\b(?:\d{4}[-\s]?){3}\d{4}\b`),
		Label: "CC",
	},
	"api_key": {
		Name:  "api_key",
		Regex: regexp.MustCompile(`(?i)(?:api[_-]?key|apikey|token|secret|password)["\s]*[:=]["\s]*[a-zA-Z0-9_\-]{8,}`),
		Label: "SECRET",
	},
}

// DefaultPatterns is used when no names are configured.
func DefaultPatterns() []string {
	return []string{"email", "phone", "credit_card", "api_key"}
}

// Names lists every available pattern in a stable order.
func Names() []string {
	return []string{"api_key", "credit_card", "email", "ipv4", "phone"}
}

// lookup returns the patterns for names in a fixed order so that longer
// matches (cards) are masked before shorter overlapping ones (phones).
// Unknown names are ignored.
func lookup(names []string) []Pattern {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Pattern
	for _, n := range []string{"api_key", "email", "credit_card", "phone", "ipv4"} {
		if want[n] {
			out = append(out, patterns[n])
		}
	}
	return out
}
