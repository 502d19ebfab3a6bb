package sanitizer

import (
	"regexp"
	"strings"
	"testing"
)

func TestSanitizeAgenda(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "  데모 요청  ", "데모 요청"},
		{"crlf to lf", "line1\r\nline2", "line1\nline2"},
		{"control chars removed", "a\x00b\x07c", "abc"},
		{"blank lines collapsed", "a\n\n\n\n\nb", "a\n\nb"},
		{"tabs kept", "a\tb", "a\tb"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeAgenda(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeAgenda(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if SanitizeAgenda(got) != got {
				t.Errorf("SanitizeAgenda is not idempotent for %q", tt.input)
			}
		})
	}
}

func TestSanitizeSearch_EscapesRegex(t *testing.T) {
	got := SanitizeSearch("  acme.*  (corp) ")
	if got != `acme\.\* \(corp\)` {
		t.Errorf("unexpected escape result %q", got)
	}

	re := regexp.MustCompile(got)
	if !re.MatchString("ACME.* (corp) ltd") && !re.MatchString("acme.* (corp) ltd") {
		t.Error("escaped term should match its literal text")
	}
	if re.MatchString("acmeXX (corp)") {
		t.Error("escaped term must not behave as a wildcard")
	}
}

func TestSanitizeSearch_Truncates(t *testing.T) {
	got := SanitizeSearch(strings.Repeat("가", MaxSearchLength+20))
	if n := len([]rune(got)); n != MaxSearchLength {
		t.Errorf("expected %d runes, got %d", MaxSearchLength, n)
	}
}

func TestSanitizeEmail(t *testing.T) {
	if got := SanitizeEmail("  Kim@GLEC.io "); got != "kim@glec.io" {
		t.Errorf("unexpected %q", got)
	}
}

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello   world  ", "hello world"},
		{"tab\there", "tab here"},
		{"line\n\nbreak", "line break"},
		{"", ""},
		{"   ", ""},
		{"제품   데모", "제품 데모"},
	}

	for _, tt := range tests {
		if got := TrimAndNormalize(tt.input); got != tt.want {
			t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeTitleAndEnum(t *testing.T) {
	if got := NormalizeTitle("  GLEC \x00 Demo  "); got != "GLEC Demo" {
		t.Errorf("NormalizeTitle = %q", got)
	}
	if got := NormalizeEnum(" demo "); got != "DEMO" {
		t.Errorf("NormalizeEnum = %q", got)
	}
}

func TestNormalizeMeetingURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"keeps path case", "https://Zoom.US/j/AbC123", "https://zoom.us/j/AbC123"},
		{"adds scheme", "meet.google.com/abc-defg-hij", "https://meet.google.com/abc-defg-hij"},
		{"drops utm", "https://zoom.us/j/1?pwd=X&utm_source=mail", "https://zoom.us/j/1?pwd=X"},
		{"trailing slash", "https://teams.microsoft.com/l/", "https://teams.microsoft.com/l"},
		{"rejects other schemes", "ftp://files.glec.io/x", ""},
		{"empty", "  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeMeetingURL(tt.input); got != tt.want {
				t.Errorf("NormalizeMeetingURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIDs(t *testing.T) {
	got := NormalizeIDs([]string{" a ", "", "b", "a", "  "})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("unexpected result %v", got)
	}
	if got := NormalizeIDs(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestClampInt(t *testing.T) {
	if ClampInt(0, 1, 30) != 1 || ClampInt(45, 1, 30) != 30 || ClampInt(7, 1, 30) != 7 {
		t.Error("ClampInt returned an out-of-range value")
	}
}
