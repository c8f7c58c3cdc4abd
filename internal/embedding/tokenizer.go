package embedding

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// Tokens lowercases text and splits it on anything that is not a letter or digit.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// HashString returns a non-negative 32-bit FNV-1a hash of s.
func HashString(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32())
}
