package config

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"90s", 90 * time.Second, false},
		{"1h30m", 90 * time.Minute, false},
		{"1d", 24 * time.Hour, false},
		{"1d2h", 26 * time.Hour, false},
		{"banana", 0, true},
		{"1d banana", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDuration(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	got, err := ParseSince("2025-01-26", now)
	if err != nil {
		t.Fatalf("ParseSince() error = %v", err)
	}
	if !got.Equal(time.Date(2025, 1, 26, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected time: %v", got)
	}

	got, err = ParseSince("2d", now)
	if err != nil {
		t.Fatalf("ParseSince() error = %v", err)
	}
	if !got.Equal(now.Add(-48 * time.Hour)) {
		t.Errorf("unexpected time: %v", got)
	}

	if _, err := ParseSince("", now); err == nil {
		t.Error("expected error for empty reference")
	}
	if _, err := ParseSince("yesterday-ish", now); err == nil {
		t.Error("expected error for invalid reference")
	}
}

func TestFormatRelative(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "Just now"},
		{90 * time.Second, "Just now"},
		{5 * time.Minute, "5 minutes ago"},
		{61 * time.Minute, "1 hour ago"},
		{5 * time.Hour, "5 hours ago"},
		{25 * time.Hour, "1 day ago"},
		{72 * time.Hour, "3 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatRelative(now.Add(-tt.ago), now); got != tt.want {
				t.Errorf("FormatRelative(-%v) = %q, want %q", tt.ago, got, tt.want)
			}
		})
	}
}
