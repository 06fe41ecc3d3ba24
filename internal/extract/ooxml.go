package extract

import (
	"archive/zip"
	"fmt"

	"github.com/beevik/etree"
)

// readPart parses one XML part of an OOXML package.
func readPart(zr *zip.Reader, name string) (*etree.Document, error) {
	f, err := zr.Open(name)
	if err != nil {
		return nil, fmt.Errorf("package part %s: %w", name, err)
	}
	defer f.Close()
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("package part %s: %w", name, err)
	}
	return doc, nil
}

// hasPart reports whether the package contains name.
func hasPart(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}
