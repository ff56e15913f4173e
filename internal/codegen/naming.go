package codegen

import (
	"go/token"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers keep state between calls, so each conversion makes its own.

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
}

func isUpperWord(w string) bool {
	letters := 0
	for _, r := range w {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters > 1
}

// goName converts a schema identifier to an exported Go identifier:
// snake_case and SCREAMING_CASE become PascalCase, existing PascalCase is
// kept.
func goName(s string) string {
	title := cases.Title(language.Und, cases.NoLower)
	lower := cases.Lower(language.Und)

	var b strings.Builder
	for _, w := range splitWords(s) {
		if isUpperWord(w) {
			w = lower.String(w)
		}
		b.WriteString(title.String(w))
	}
	name := b.String()
	switch {
	case name == "":
		return "X"
	case unicode.IsDigit(rune(name[0])):
		return "N" + name
	}
	return name
}

// localName converts a schema identifier to an unexported Go identifier
// usable as a parameter name.
func localName(s string) string {
	name := goName(s)
	runes := []rune(name)
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		// Lower a leading initialism, keeping the start of the next word.
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
		i++
	}
	name = string(runes)
	if token.IsKeyword(name) {
		name += "_"
	}
	return name
}

// macroName converts a schema identifier to UPPER_SNAKE_CASE for C
// preprocessor and enumerator names.
func macroName(s string) string {
	upper := cases.Upper(language.Und)

	var parts []string
	for _, w := range splitWords(s) {
		runes := []rune(w)
		start := 0
		for i := 1; i < len(runes); i++ {
			prev, cur := runes[i-1], runes[i]
			boundary := unicode.IsUpper(cur) && (unicode.IsLower(prev) || unicode.IsDigit(prev))
			// "HTTPServer" splits before the last capital of a run.
			if !boundary && unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				boundary = true
			}
			if boundary {
				parts = append(parts, string(runes[start:i]))
				start = i
			}
		}
		parts = append(parts, string(runes[start:]))
	}
	return upper.String(strings.Join(parts, "_"))
}

// methodNames are generated on record types; fields are renamed away from
// them.
var methodNames = map[string]bool{
	"WireSize":   true,
	"AppendWire": true,
	"Encode":     true,
	"DecodeWire": true,
	"Opcode":     true,
	"SType":      true,
	"ToNative":   true,
	"FromNative": true,
	"String":     true,
}

func fieldName(s string) string {
	name := goName(s)
	if methodNames[name] {
		name += "Field"
	}
	return name
}
