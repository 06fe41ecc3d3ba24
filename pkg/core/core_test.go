package core

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanTree_Smoke(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("ACCT ABC123456 end"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.bin"), []byte("ACCT ABC123456 end"), 0o644))

	res, err := ScanTree(context.Background(), Config{
		Root:      root,
		FileTypes: []string{".TXT"},
		Rules:     []Rule{{Name: "acct", Regex: `[A-Z]{3}\d{6}`, Prefixes: []string{"ACCT"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesScanned)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "a.txt", res.Findings[0].Path)
	assert.Equal(t, "ABC123456", res.Findings[0].Value)
}

func TestExtract_Undetermined(t *testing.T) {
	out := Extract(context.Background(), "/nowhere/file")
	assert.True(t, out.Failed())
	assert.Equal(t, "type undetermined", out.Text)
}

func TestReadReport(t *testing.T) {
	var buf bytes.Buffer
	rep := NewReport("dlpagent", "0.1.0", "/srv", nil)
	require.NoError(t, WriteReport(&buf, rep))
	assert.Contains(t, buf.String(), `"findings": []`)

	got, err := ReadReport(&buf)
	require.NoError(t, err)
	assert.Equal(t, "/srv", got.Root)
	assert.Empty(t, got.Findings)

	_, err = ReadReport(strings.NewReader(`{"schema_version":"9","findings":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported report schema")

	_, err = ReadReport(strings.NewReader(`{`))
	require.Error(t, err)
}
