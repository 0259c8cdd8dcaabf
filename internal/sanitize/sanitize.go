// Package sanitize cleans user and import input before it reaches storage.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

var (
	strict     = bluemonday.StrictPolicy()
	spaces     = regexp.MustCompile(`\s+`)
	slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)
	metaKey    = regexp.MustCompile(`^[a-z0-9_\-]{1,191}$`)
)

const maxPasses = 5

// Text strips markup, unescapes entities and collapses whitespace. Stripping
// repeats until unescaping no longer produces new markup.
func Text(s string) string {
	stable := false
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			stable = true
			break
		}
		s = next
	}
	if !stable {
		s = strings.NewReplacer("<", "", ">", "").Replace(s)
	}
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Textarea is Text that keeps line breaks.
func Textarea(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = Text(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Slug lowercases, drops accents and joins words with hyphens.
func Slug(s string) string {
	s = strings.ToLower(Text(s))
	s = stripAccents(s)
	s = slugUnsafe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 191 {
		s = strings.TrimRight(s[:191], "-")
	}
	return s
}

// Key lowercases a metadata key and reports whether it is usable.
func Key(s string) (string, bool) {
	k := strings.ToLower(strings.TrimSpace(s))
	return k, metaKey.MatchString(k)
}

// URL keeps only http(s) URLs.
func URL(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return s
	}
	return ""
}

func stripAccents(s string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
