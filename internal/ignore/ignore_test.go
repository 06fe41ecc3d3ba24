package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIgnoreMatch(t *testing.T) {
	dir := t.TempDir()
	ig := filepath.Join(dir, FileName)
	content := "node_modules/\n*.pem\n# comment\n\nsecret.env\n/exports/*.csv\ndocs/**/draft-*\n"
	if err := os.WriteFile(ig, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(ig)
	if err != nil {
		t.Fatal(err)
	}
	if m.Len() != 5 {
		t.Fatalf("Len()=%d want 5", m.Len())
	}
	cases := map[string]bool{
		"node_modules/pkg/index.js": true,
		"node_modules":              false,
		"certs/key.pem":             true,
		"secret.env":                true,
		"nested/secret.env":         true,
		"exports/q1.csv":            true,
		"archive/exports/q1.csv":    false,
		"docs/a/b/draft-1.docx":     true,
		"docs/final.docx":           false,
		"src/app.go":                false,
		"":                          false,
	}
	for p, want := range cases {
		if got := m.Match(p); got != want {
			t.Fatalf("Match(%q)=%v want %v", p, got, want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("missing ignore file should not error: %v", err)
	}
	if m.Match("anything.txt") {
		t.Fatal("empty matcher should match nothing")
	}
}

func TestAddSkipsInvalidGlob(t *testing.T) {
	var m Matcher
	m.Add("[unterminated")
	m.Add("   ")
	if m.Len() != 0 {
		t.Fatalf("Len()=%d want 0", m.Len())
	}
}

func TestMatchDir(t *testing.T) {
	var m Matcher
	m.Add("node_modules/")
	m.Add("/exports")
	m.Add("tmp*")
	cases := map[string]bool{
		"node_modules":         true,
		"web/node_modules":     true,
		"exports":              true,
		"archive/exports":      false,
		"tmp-2024":             true,
		"reports/tmp-q1/inner": true,
		"reports":              false,
		".":                    false,
	}
	for p, want := range cases {
		if got := m.MatchDir(p); got != want {
			t.Fatalf("MatchDir(%q)=%v want %v", p, got, want)
		}
	}
}

func TestAppend_IdempotentAndCreates(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, FileName)
	if err := Append(dir, "exports/"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(b) != "exports/\n" {
		t.Fatalf("unexpected content: %q", string(b))
	}
	if err := Append(dir, " exports/ "); err != nil {
		t.Fatalf("Append second: %v", err)
	}
	b, _ = os.ReadFile(p)
	if string(b) != "exports/\n" {
		t.Fatalf("expected no duplicate; got %q", string(b))
	}
}

func TestAppend_AddsMissingNewline(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, FileName)
	if err := os.WriteFile(p, []byte("*.tmp"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Append(dir, "drafts/"); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "*.tmp\ndrafts/\n" {
		t.Fatalf("unexpected content: %q", string(b))
	}
	m, err := Load(p)
	if err != nil || !m.Match("drafts/q3.docx") || !m.Match("x.tmp") {
		t.Fatalf("appended patterns not honoured: %v", err)
	}
	if err := Append(dir, "  "); err == nil {
		t.Fatal("expected error for empty pattern")
	}
}
