package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func StringPtr(v string) *string { return &v }

func FloatPtr(v float64) *float64 { return &v }

func IntPtr(v int) *int { return &v }

func Deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// TitleCase title-cases every run of cased letters, so a word restarts after
// any uncased character: "foo_bars" becomes "Foo_Bars", "x-rays" "X-Rays".
// A Caser is not safe for concurrent use, so one is built per call.
func TitleCase(input string) string {
	caser := cases.Title(language.Und)
	var b strings.Builder
	b.Grow(len(input))
	runStart := -1
	for i, r := range input {
		if isCased(r) {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			b.WriteString(caser.String(input[runStart:i]))
			runStart = -1
		}
		b.WriteRune(r)
	}
	if runStart >= 0 {
		b.WriteString(caser.String(input[runStart:]))
	}
	return b.String()
}

func isCased(r rune) bool {
	return unicode.IsUpper(r) || unicode.IsLower(r) || unicode.IsTitle(r)
}

// SanitizeFileName replaces characters that are unsafe in file names and caps the length.
func SanitizeFileName(input string) string {
	repl := strings.NewReplacer("<", "_", ">", "_", ":", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_", " ", "_", "\"", "_")
	out := repl.Replace(input)
	if len(out) > 120 {
		out = out[:120]
	}
	return out
}
