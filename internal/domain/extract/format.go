package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var inventorNameStripper = strings.NewReplacer("[", "", "]", "", "'", "")

// FormatInventorNames title-cases each name, removes square brackets and
// single quotes, and joins the names with ", ". A nil or empty list yields "".
// Every run of cased letters is capitalized on its own, so "o'brien" becomes
// "OBrien" and "mary-jane" becomes "Mary-Jane".
func FormatInventorNames(names []string) string {
	if len(names) == 0 {
		return ""
	}
	// Casers keep state and are not safe for concurrent use.
	caser := cases.Title(language.Und)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = inventorNameStripper.Replace(titleRuns(caser, n))
	}
	return strings.Join(parts, ", ")
}

func titleRuns(caser cases.Caser, s string) string {
	var b strings.Builder
	b.Grow(len(s))
	start := -1
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if isCased(r) {
			if start < 0 {
				start = i
			}
		} else {
			if start >= 0 {
				b.WriteString(caser.String(s[start:i]))
				start = -1
			}
			b.WriteString(s[i : i+size])
		}
		i += size
	}
	if start >= 0 {
		b.WriteString(caser.String(s[start:]))
	}
	return b.String()
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}

// SplitCategoryName splits a "<code> <description>" category name on the
// first run of whitespace. A name with no description yields an empty name
// part; an empty name yields two empty parts.
func SplitCategoryName(name string) (code, desc string) {
	s := strings.TrimSpace(name)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}

//Personal.AI order the ending
