package extract

import (
	"archive/zip"
	"context"
	"strings"

	"github.com/beevik/etree"
)

// Word joins the paragraphs of a word-processing document with newlines, in
// document order. Paragraphs inside tables are included.
type Word struct{}

// Extract implements Extractor.
func (Word) Extract(ctx context.Context, path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	doc, err := readPart(&zr.Reader, "word/document.xml")
	if err != nil {
		return "", err
	}
	var paras []*etree.Element
	collectParagraphs(doc.Root(), &paras)
	lines := make([]string, 0, len(paras))
	for _, p := range paras {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		var sb strings.Builder
		runText(&sb, p)
		lines = append(lines, sb.String())
	}
	return strings.Join(lines, "\n"), nil
}

// collectParagraphs walks depth-first so paragraphs come out in document
// order. etree's "//" selector is breadth-first.
func collectParagraphs(e *etree.Element, out *[]*etree.Element) {
	if e == nil {
		return
	}
	for _, c := range e.ChildElements() {
		if c.Space == "w" && c.Tag == "p" {
			*out = append(*out, c)
		}
		collectParagraphs(c, out)
	}
}

// runText appends the visible text under e.
func runText(sb *strings.Builder, e *etree.Element) {
	for _, c := range e.ChildElements() {
		if c.Space != "w" {
			runText(sb, c)
			continue
		}
		switch c.Tag {
		case "t":
			sb.WriteString(c.Text())
		case "tab":
			sb.WriteByte('\t')
		case "br", "cr":
			sb.WriteByte('\n')
		case "p":
			// visited on its own
		default:
			runText(sb, c)
		}
	}
}
