package extract

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// maxColumns is the widest sheet Excel allows (column XFD).
const maxColumns = 16384

var errColumnRange = errors.New("column out of range")

// Spreadsheet renders the first worksheet of a workbook as a flat table.
type Spreadsheet struct{}

// Extract implements Extractor.
func (Spreadsheet) Extract(ctx context.Context, p string) (string, error) {
	zr, err := zip.OpenReader(p)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	shared, err := sharedStrings(&zr.Reader)
	if err != nil {
		return "", err
	}
	sheet, err := readPart(&zr.Reader, firstSheet(&zr.Reader))
	if err != nil {
		return "", err
	}

	var rows [][]string
	for _, row := range sheet.FindElements("//sheetData/row") {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		var cells []string
		for i, c := range row.SelectElements("c") {
			col := i
			if ref := c.SelectAttrValue("r", ""); ref != "" {
				n, err := columnIndex(ref)
				if err != nil {
					return "", err
				}
				if n >= 0 {
					col = n
				}
			}
			if col >= maxColumns {
				return "", fmt.Errorf("cell %d in row: %w", col+1, errColumnRange)
			}
			for len(cells) <= col {
				cells = append(cells, "")
			}
			cells[col] = cellValue(c, shared)
		}
		rows = append(rows, cells)
	}
	return renderTable(rows)
}

func sharedStrings(zr *zip.Reader) ([]string, error) {
	const name = "xl/sharedStrings.xml"
	if !hasPart(zr, name) {
		return nil, nil
	}
	doc, err := readPart(zr, name)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, si := range doc.FindElements("//si") {
		var sb strings.Builder
		for _, t := range si.FindElements(".//t") {
			sb.WriteString(t.Text())
		}
		out = append(out, sb.String())
	}
	return out, nil
}

// firstSheet resolves the first <sheet> of the workbook through its
// relationship id, falling back to the conventional part name.
func firstSheet(zr *zip.Reader) string {
	const fallback = "xl/worksheets/sheet1.xml"
	wb, err := readPart(zr, "xl/workbook.xml")
	if err != nil {
		return fallback
	}
	sheet := wb.FindElement("//sheets/sheet")
	if sheet == nil {
		return fallback
	}
	rid := sheet.SelectAttrValue("r:id", "")
	rels, err := readPart(zr, "xl/_rels/workbook.xml.rels")
	if err != nil || rid == "" {
		return fallback
	}
	for _, rel := range rels.FindElements("//Relationship") {
		if rel.SelectAttrValue("Id", "") != rid {
			continue
		}
		target := rel.SelectAttrValue("Target", "")
		if strings.HasPrefix(target, "/") {
			return strings.TrimPrefix(target, "/")
		}
		return path.Join("xl", target)
	}
	return fallback
}

func cellValue(c *etree.Element, shared []string) string {
	switch c.SelectAttrValue("t", "") {
	case "s":
		v := c.SelectElement("v")
		if v == nil {
			return ""
		}
		i, err := strconv.Atoi(strings.TrimSpace(v.Text()))
		if err != nil || i < 0 || i >= len(shared) {
			return ""
		}
		return shared[i]
	case "inlineStr":
		var sb strings.Builder
		for _, t := range c.FindElements(".//t") {
			sb.WriteString(t.Text())
		}
		return sb.String()
	default:
		if v := c.SelectElement("v"); v != nil {
			return v.Text()
		}
		return ""
	}
}

// columnIndex converts the letters of a cell reference such as "AB12" into a
// zero-based column index. It returns -1 when ref has no column letters and
// an error when the column lies beyond XFD.
func columnIndex(ref string) (int, error) {
	n, letters := 0, 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		letters++
		if letters > 3 {
			return 0, fmt.Errorf("cell %q: %w", ref, errColumnRange)
		}
		n = n*26 + int(r-'A'+1)
	}
	if letters == 0 {
		return -1, nil
	}
	if n > maxColumns {
		return 0, fmt.Errorf("cell %q: %w", ref, errColumnRange)
	}
	return n - 1, nil
}
