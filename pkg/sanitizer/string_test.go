package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"   ", ""},
		{"Jane", "Jane"},
		{"  Jane   Doe  ", "Jane Doe"},
		{"Mary\t\nAnn", "Mary Ann"},
		{"José  Álvarez", "José Álvarez"},
	}
	for _, tt := range tests {
		if got := TrimAndNormalize(tt.input); got != tt.want {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a@x.com", "a@x.com"},
		{"  A@X.Com ", "a@x.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeEmail(tt.input); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeLabel(t *testing.T) {
	if got := NormalizeLabel("  General   Medicine "); got != "general medicine" {
		t.Errorf("NormalizeLabel = %q", got)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"http://Example.COM/Images/Dr.png", "https://example.com/Images/Dr.png"},
		{"example.com/", "https://example.com"},
		{"https://cdn.clinic.org", "https://cdn.clinic.org"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.input); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
