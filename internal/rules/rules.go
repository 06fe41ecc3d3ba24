package rules

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/redactyl/dlpagent/internal/types"
)

// ErrInvalidPattern is returned when a rule's core pattern does not compile.
var ErrInvalidPattern = errors.New("invalid pattern")

// valueGroup names the capture group wrapping the core pattern.
const valueGroup = "value"

// Rule is one configured search: a named core pattern with optional
// literal prefixes and suffixes that must surround it.
type Rule struct {
	Name     string   `yaml:"name" json:"name" validate:"required"`
	Regex    string   `yaml:"regex" json:"regex"`
	Prefixes []string `yaml:"prefixes,omitempty" json:"prefixes,omitempty"`
	Suffixes []string `yaml:"suffixes,omitempty" json:"suffixes,omitempty"`
}

// Matcher is one compiled (rule, prefix, suffix) combination.
type Matcher struct {
	Rule   string
	Prefix string
	Suffix string

	re    *regexp.Regexp
	group int
}

// contexts returns the configured context strings or the single empty
// default when none are set.
func contexts(in []string) []string {
	if len(in) == 0 {
		return []string{""}
	}
	return in
}

// Compile builds the cartesian product of the rule's prefixes and suffixes,
// prefix-major. A rule with an empty core pattern yields no matchers.
func Compile(r Rule) ([]Matcher, error) {
	if r.Regex == "" {
		return nil, nil
	}
	if _, err := regexp.Compile(r.Regex); err != nil {
		return nil, fmt.Errorf("rule %q: %w: %v", r.Name, ErrInvalidPattern, err)
	}
	prefixes := contexts(r.Prefixes)
	suffixes := contexts(r.Suffixes)
	out := make([]Matcher, 0, len(prefixes)*len(suffixes))
	for _, p := range prefixes {
		for _, s := range suffixes {
			expr := regexp.QuoteMeta(p) + `\s?(?P<` + valueGroup + `>` + r.Regex + `)\s?` + regexp.QuoteMeta(s)
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w: %v", r.Name, ErrInvalidPattern, err)
			}
			out = append(out, Matcher{
				Rule:   r.Name,
				Prefix: p,
				Suffix: s,
				re:     re,
				group:  re.SubexpIndex(valueGroup),
			})
		}
	}
	return out, nil
}

// findAll returns the raw core values of every non-overlapping match in text,
// in position order.
func (m Matcher) findAll(text string) []string {
	idx := m.re.FindAllStringSubmatchIndex(text, -1)
	if len(idx) == 0 {
		return nil
	}
	out := make([]string, 0, len(idx))
	for _, loc := range idx {
		start, end := loc[2*m.group], loc[2*m.group+1]
		if start < 0 {
			continue
		}
		out = append(out, text[start:end])
	}
	return out
}

// Count returns the number of matches the matcher finds in text without
// exposing the matched values.
func (m Matcher) Count(text string) int {
	return len(m.findAll(text))
}

// Validate compiles every rule once so that malformed patterns surface at
// configuration time rather than mid-scan.
func Validate(rs []Rule) error {
	var errs []error
	for _, r := range rs {
		if _, err := Compile(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Search applies every rule to text and returns censored records ordered by
// rule, then prefix, then suffix, then match position. Matchers are rebuilt
// on every call.
func Search(rs []Rule, text string) ([]types.MatchRecord, error) {
	var out []types.MatchRecord
	for _, r := range rs {
		matchers, err := Compile(r)
		if err != nil {
			return nil, err
		}
		for _, m := range matchers {
			for _, v := range m.findAll(text) {
				out = append(out, types.MatchRecord{Rule: r.Name, Value: Censor(v)})
			}
		}
	}
	return out, nil
}
