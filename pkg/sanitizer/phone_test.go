package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"E.164 stays", "+972541234567", "+972541234567"},
		{"with spaces", "+972 54 123 4567", "+972541234567"},
		{"with dashes", "+972-54-123-4567", "+972541234567"},
		{"with parentheses", "+1 (212) 555-1234", "+12125551234"},
		{"surrounding spaces", "  +12125551234  ", "+12125551234"},
		{"national number uses default region", "212-555-1234", "+12125551234"},
		{"empty", "", ""},
		{"only whitespace", "   ", ""},
		{"letters are kept for the validator", "call-me", "callme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	inputs := []string{"+1 (212) 555-1234", "212.555.1234", "+44 20 7946 0958", "bogus"}
	for _, input := range inputs {
		once := NormalizePhone(input)
		twice := NormalizePhone(once)
		if once != twice {
			t.Errorf("NormalizePhone not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}
