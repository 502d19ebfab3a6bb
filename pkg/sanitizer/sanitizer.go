package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

const (
	MaxAgendaLength = 2000
	MaxSearchLength = 100
)

var reBlankLines = regexp.MustCompile(`\n{3,}`)

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func collapseBlankLines(s string) string {
	return reBlankLines.ReplaceAllString(s, "\n\n")
}

// SanitizeAgenda cleans free text typed by a lead. Line breaks survive;
// other control characters do not. Length is checked by the caller.
func SanitizeAgenda(input string) string {
	p := Pipeline{
		normalizeNewlines,
		stripControl,
		collapseBlankLines,
		strings.TrimSpace,
	}
	return p.Apply(input)
}

// SanitizeSearch prepares a user search term for use inside a Mongo $regex.
func SanitizeSearch(input string) string {
	p := Pipeline{
		stripControl,
		TrimAndNormalize,
		func(s string) string {
			if r := []rune(s); len(r) > MaxSearchLength {
				return string(r[:MaxSearchLength])
			}
			return s
		},
		regexp.QuoteMeta,
	}
	return p.Apply(input)
}

func SanitizeEmail(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
