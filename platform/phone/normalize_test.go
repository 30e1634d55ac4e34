package phone

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare ten digit number gets country code", "9876543210", "+919876543210"},
		{"already prefixed with spacing", "+91 98765 43210", "+919876543210"},
		{"dashes and parentheses", "(98765) 432-10", "+919876543210"},
		{"short garbage passes through with plus", "123", "+123"},
		{"empty input", "", ""},
		{"whitespace only", "   ", ""},
		{"letters only fall back to trimmed input", "call me", "call me"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
