// Package ignore reads .dlpagentignore files: gitignore-flavoured glob
// lists that keep paths under the scan root out of a cycle.
package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// FileName is the per-root ignore file the scanner looks for.
const FileName = ".dlpagentignore"

// Matcher reports whether a slash-separated relative path is ignored.
// The zero value ignores nothing.
type Matcher struct {
	patterns []pattern
}

type pattern struct {
	glob     string
	dirOnly  bool
	anchored bool
}

// Load parses the ignore file at p. A missing file yields an empty Matcher.
func Load(p string) (Matcher, error) {
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Matcher{}, nil
		}
		return Matcher{}, fmt.Errorf("open ignore file: %w", err)
	}
	defer f.Close()

	var m Matcher
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m.Add(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return Matcher{}, fmt.Errorf("read ignore file: %w", err)
	}
	return m, nil
}

// Add appends one ignore line. Blank lines and '#' comments are skipped.
func (m *Matcher) Add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	p := pattern{}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = strings.TrimPrefix(line, "/")
	} else if strings.Contains(line, "/") {
		p.anchored = true
	}
	if !doublestar.ValidatePattern(line) {
		return
	}
	p.glob = line
	m.patterns = append(m.patterns, p)
}

// Append adds pattern to the ignore file under root, creating the file if
// needed. Patterns already present are left alone.
func Append(root, pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return errors.New("empty ignore pattern")
	}
	p := filepath.Join(root, FileName)
	var last byte = '\n'
	if b, err := os.ReadFile(p); err == nil {
		for _, line := range strings.Split(string(b), "\n") {
			if strings.TrimSpace(line) == pattern {
				return nil
			}
		}
		if len(b) > 0 {
			last = b[len(b)-1]
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read ignore file: %w", err)
	}

	f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ignore file: %w", err)
	}
	defer f.Close()
	if last != '\n' {
		pattern = "\n" + pattern
	}
	if _, err := f.WriteString(pattern + "\n"); err != nil {
		return fmt.Errorf("write ignore file: %w", err)
	}
	return nil
}

// Len returns the number of active patterns.
func (m Matcher) Len() int { return len(m.patterns) }

// Match reports whether rel (or any of its parent directories) is ignored.
func (m Matcher) Match(rel string) bool {
	rel = strings.TrimPrefix(strings.ReplaceAll(rel, "\\", "/"), "./")
	if rel == "" {
		return false
	}
	segs := strings.Split(rel, "/")
	for _, p := range m.patterns {
		if p.matches(segs) {
			return true
		}
	}
	return false
}

// MatchDir reports whether the directory rel is ignored, so a walk can
// skip it without descending.
func (m Matcher) MatchDir(rel string) bool {
	rel = strings.TrimPrefix(strings.ReplaceAll(rel, "\\", "/"), "./")
	if rel == "" || rel == "." {
		return false
	}
	segs := strings.Split(strings.TrimSuffix(rel, "/"), "/")
	for _, p := range m.patterns {
		if p.matchPrefixes(segs, len(segs)) {
			return true
		}
	}
	return false
}

func (p pattern) matches(segs []string) bool {
	// Directory patterns only see proper parents; file patterns see the
	// path itself as well.
	last := len(segs)
	if p.dirOnly {
		last--
	}
	return p.matchPrefixes(segs, last)
}

func (p pattern) matchPrefixes(segs []string, last int) bool {
	for i := 1; i <= last; i++ {
		prefix := path.Join(segs[:i]...)
		if p.anchored {
			if ok, _ := doublestar.Match(p.glob, prefix); ok {
				return true
			}
			continue
		}
		if ok, _ := doublestar.Match(p.glob, segs[i-1]); ok {
			return true
		}
	}
	return false
}
