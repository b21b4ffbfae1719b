package storage

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxFilenameLen = 120

// SanitizeFilename turns an arbitrary title into a portable filename component.
// Accents are removed, path separators and control characters are replaced, and
// the result is never empty.
func SanitizeFilename(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, _ = transform.String(t, s)

	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case r == '.' || r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	out := strings.Trim(b.String(), "-.")
	if r := []rune(out); len(r) > maxFilenameLen {
		out = strings.TrimRight(string(r[:maxFilenameLen]), "-.")
	}
	if out == "" {
		return "download"
	}
	return out
}

// Extension returns the lowercased extension of a URL path, or def when absent.
func Extension(urlPath, def string) string {
	ext := strings.ToLower(path.Ext(urlPath))
	if ext == "" || len(ext) > 8 {
		return def
	}
	return ext
}
