package slug

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify lowercases input, strips diacritics and joins alphanumeric runs with "-".
func Slugify(input string) string {
	if input == "" {
		return ""
	}
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), input)
	if err != nil {
		folded = input
	}
	folded = strings.ToLower(strings.TrimSpace(folded))

	var sb strings.Builder
	sb.Grow(len(folded))
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingDash = false
			sb.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return sb.String()
}

// Unslugify turns a path slug back into a search name. Bad escapes fall back
// to the raw slug.
func Unslugify(s string) string {
	if s == "" {
		return ""
	}
	decoded, err := url.PathUnescape(s)
	if err != nil {
		decoded = s
	}
	return strings.TrimSpace(strings.ReplaceAll(decoded, "-", " "))
}
