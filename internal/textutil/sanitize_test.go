package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Nancy Sinatra - Bang Bang", "Nancy Sinatra - Bang Bang"},
		{"slash becomes dash", "AC/DC - Back In Black", "AC-DC - Back In Black"},
		{"removes quotes and question marks", `How Does That "Grab" You?`, "How Does That Grab You"},
		{"collapses spaces", "multiple   spaces", "multiple spaces"},
		{"trims dots", "ending dot.", "ending dot"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFileName(tt.input); got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "FLAC", "flac"},
		{"replaces punctuation", "a.b c", "a_b_c"},
		{"empty becomes unknown", "", "unknown"},
		{"only punctuation becomes unknown", "...", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeToken(tt.input); got != tt.want {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
