package deser

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/blockberries/shapecraft/pkg/shape"
)

// RenameRule names a wire-name casing convention the engine derives from a
// shape field's name (its tag name, or its Go name when the tag gives
// none) when the field carries no explicit `rename=` override, using
// golang.org/x/text/cases the same way codegen reaches for it to produce
// identifier casing for generated code; here the same library renders the
// other direction, turning a field name into whatever casing the wire
// format's authors actually used.
type RenameRule uint8

const (
	// RenameNone uses each field's shape name (or its explicit rename tag)
	// unchanged.
	RenameNone RenameRule = iota
	// RenameSnakeCase renders "UserID" as "user_id".
	RenameSnakeCase
	// RenameCamelCase renders "UserID" as "userId".
	RenameCamelCase
	// RenameKebabCase renders "UserID" as "user-id".
	RenameKebabCase
)

var titleCaser = cases.Title(language.Und)

// renameField computes the wire name an input document is expected to use
// for fld, honoring an explicit RenameAs tag override first.
func renameField(fld shape.Field, rule RenameRule) string {
	if fld.RenameAs != "" {
		return fld.RenameAs
	}
	switch rule {
	case RenameSnakeCase:
		return toDelimited(fld.Name, '_')
	case RenameKebabCase:
		return toDelimited(fld.Name, '-')
	case RenameCamelCase:
		return toCamel(fld.Name)
	default:
		return fld.Name
	}
}

// toDelimited splits fld's Go-style identifier on case boundaries and
// joins the pieces with sep, lower-cased.
func toDelimited(name string, sep byte) string {
	words := splitWords(name)
	out := make([]byte, 0, len(name)+4)
	for i, w := range words {
		if i > 0 {
			out = append(out, sep)
		}
		lower := cases.Lower(language.Und).String(w)
		out = append(out, lower...)
	}
	return string(out)
}

// toCamel lower-cases the first word and title-cases the rest, the
// standard lowerCamelCase rendering of a Go exported identifier.
func toCamel(name string) string {
	words := splitWords(name)
	if len(words) == 0 {
		return name
	}
	out := cases.Lower(language.Und).String(words[0])
	for _, w := range words[1:] {
		out += titleCaser.String(cases.Lower(language.Und).String(w))
	}
	return out
}

// splitWords breaks a Go exported identifier into its constituent words
// using the conventional boundary rules: an uppercase letter following a
// lowercase letter or digit starts a new word, and a run of uppercase
// letters followed by a lowercase letter treats the last uppercase letter
// as the start of the next word (so "UserID" splits as "User", "ID", and
// "HTTPServer" splits as "HTTP", "Server").
func splitWords(name string) []string {
	if name == "" {
		return nil
	}
	var words []string
	start := 0
	runes := []rune(name)
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := false
		if isUpper(cur) && (isLower(prev) || isDigit(prev)) {
			boundary = true
		} else if isUpper(cur) && isUpper(prev) && i+1 < len(runes) && isLower(runes[i+1]) {
			boundary = true
		}
		if boundary {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	words = append(words, string(runes[start:]))
	return words
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isLower(r rune) bool { return r >= 'a' && r <= 'z' }
func isDigit(r rune) bool { return r >= '0' && r <= '9' }
