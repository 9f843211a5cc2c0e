// Package content validates user supplied text before it is stored. Text is
// kept as the user wrote it; clients escape it when rendering.
package content

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/smallbiznis/chirp/pkg/apperror"
	"go.uber.org/fx"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrEmpty   = apperror.Validation("empty_content")
	ErrTooLong = apperror.Validation("content_too_long")
	// ErrInvalid covers invalid UTF-8 and control characters other than
	// newline, carriage return and tab.
	ErrInvalid = apperror.Validation("invalid_content")
)

var Module = fx.Module("content", fx.Provide(NewPolicy))

// Policy normalizes and bounds post, status and message bodies.
type Policy struct {
	form norm.Form
}

func NewPolicy() *Policy {
	return &Policy{form: norm.NFC}
}

// Normalize trims surrounding whitespace and composes the text to NFC so that
// rune counts do not depend on how the client encoded accents.
func (p *Policy) Normalize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return p.form.String(text)
}

// Check normalizes text and enforces a length of 1..max runes.
func (p *Policy) Check(text string, max int) (string, error) {
	if !utf8.ValidString(text) {
		return "", ErrInvalid
	}
	normalized := p.Normalize(text)
	if normalized == "" {
		return "", ErrEmpty
	}
	if strings.IndexFunc(normalized, disallowed) >= 0 {
		return "", ErrInvalid
	}
	if max > 0 && utf8.RuneCountInString(normalized) > max {
		return "", ErrTooLong
	}
	return normalized, nil
}

func disallowed(r rune) bool {
	switch r {
	case '\n', '\r', '\t':
		return false
	}
	return unicode.IsControl(r)
}
