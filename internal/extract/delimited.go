package extract

import (
	"context"
	"encoding/csv"
	"os"
)

// Delimited renders a CSV-style file as a flat table.
type Delimited struct {
	Comma rune
}

// Extract implements Extractor.
func (d Delimited) Extract(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := csv.NewReader(f)
	if d.Comma != 0 {
		r.Comma = d.Comma
	}
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return "", err
	}
	return renderTable(rows)
}
