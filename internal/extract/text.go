package extract

import (
	"context"
	"os"
)

// Text reads a file verbatim.
type Text struct{}

// Extract implements Extractor.
func (Text) Extract(_ context.Context, path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
