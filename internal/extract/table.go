package extract

import (
	"bytes"

	"github.com/olekukonko/tablewriter"
)

// renderTable lays rows out as a flat text table. The first row is written
// as an ordinary row so header cells keep their original case.
func renderTable(rows [][]string) (string, error) {
	if len(rows) == 0 {
		return "", nil
	}
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	padded := make([][]string, len(rows))
	for i, r := range rows {
		if len(r) == width {
			padded[i] = r
			continue
		}
		p := make([]string, width)
		copy(p, r)
		padded[i] = p
	}

	var buf bytes.Buffer
	t := tablewriter.NewWriter(&buf)
	if err := t.Bulk(padded); err != nil {
		return "", err
	}
	if err := t.Render(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
