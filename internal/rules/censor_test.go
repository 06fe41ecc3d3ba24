package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCensor(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"1", "1"},
		{"a1b", "a1b"},
		{"1234", "1234"},
		{"a1234", "a1234"},
		{"1a2b3c4567", "*a*b*c4567"},
		{"123-45-6789", "123-45-6789"},
		{"1-2-3-4-5678", "*-*-*-*-5678"},
		{"ab1" + "2345", "ab*2345"},
		{"12a3b4cdef", "12a*b*cdef"},
		{"x٣y1234", "x*y1234"},
		{"no digits here", "no digits here"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Censor(tc.in), "Censor(%q)", tc.in)
	}
}

func TestCensor_KeepsLength(t *testing.T) {
	in := "é1é2é3é4é5é6"
	out := Censor(in)
	assert.Equal(t, len([]rune(in)), len([]rune(out)))
	assert.Equal(t, "é*é*é*é*é5é6", out)
}

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint("docs/a.txt", "SSN", "123-45-6789")
	b := Fingerprint("docs/a.txt", "SSN", "123-45-6789")
	c := Fingerprint("docs/b.txt", "SSN", "123-45-6789")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}
