package dispatch

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// deprecatedPrefixes are the "before" hook families replaced by their
// unprefixed counterparts.
var deprecatedPrefixes = []string{"prePersist", "preUpdate", "preRemove"}

// Deprecation reports use of a deprecated hook name.
type Deprecation struct {
	Handler     string
	Replacement string
}

// Message is the human-readable warning.
func (d Deprecation) Message() string {
	return fmt.Sprintf("the %s handler is deprecated; use %s instead", d.Handler, d.Replacement)
}

func deprecated(name string) (Deprecation, bool) {
	for _, prefix := range deprecatedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return Deprecation{Handler: name, Replacement: ReplacementName(name)}, true
		}
	}
	return Deprecation{}, false
}

// ReplacementName derives the non-deprecated hook name: the first three
// characters are dropped and the next one is lower-cased, so
// "prePersistEntity" becomes "persistEntity".
func ReplacementName(name string) string {
	if len(name) <= 3 {
		return ""
	}
	rest := name[3:]
	r, size := utf8.DecodeRuneInString(rest)
	return string(unicode.ToLower(r)) + rest[size:]
}
