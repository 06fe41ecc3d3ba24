package rules

import (
	"fmt"
	"unicode"

	xxhash "github.com/cespare/xxhash/v2"
)

const (
	// MaskChar replaces isolated digits in the censored portion of a value.
	MaskChar = '*'
	// keepTail is the number of trailing characters kept verbatim.
	keepTail = 4
)

// Censor masks a matched value before it leaves the process. Values of four
// characters or more keep their last four characters as-is; in the leading
// portion every digit with no digit neighbour is replaced by MaskChar while
// multi-digit runs and non-digits are kept. Shorter values are returned
// unchanged.
//
// Digit runs in the leading portion stay readable.
func Censor(value string) string {
	r := []rune(value)
	if len(r) < keepTail {
		return value
	}
	head := r[:len(r)-keepTail]
	out := make([]rune, 0, len(r))
	for i, c := range head {
		if unicode.IsDigit(c) && !digitAt(head, i-1) && !digitAt(head, i+1) {
			out = append(out, MaskChar)
			continue
		}
		out = append(out, c)
	}
	out = append(out, r[len(r)-keepTail:]...)
	return string(out)
}

func digitAt(r []rune, i int) bool {
	return i >= 0 && i < len(r) && unicode.IsDigit(r[i])
}

// Fingerprint returns a stable 16-hex-digit identity for a censored finding
// so the controller can de-duplicate reports across cycles.
func Fingerprint(path, rule, censored string) string {
	d := xxhash.New()
	_, _ = d.WriteString(rule)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(path)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(censored)
	return fmt.Sprintf("%016x", d.Sum64())
}
