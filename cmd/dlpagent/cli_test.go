package dlpagent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redactyl/dlpagent/internal/config"
	"github.com/redactyl/dlpagent/internal/types"
)

// execute runs the root command in-process with fresh flag values.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Setenv("CI", "1")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags() {
	flagConfig, flagVerbose, flagNoColor, flagLogJSON, flagNoUpdateCheck = "", 0, true, false, true
	flagPath, flagFormat, flagBaseline = "", "table", defaultBaseline
	flagFailOnFindings, flagDryRun, flagProgress = false, false, false
	flagRemoteConfig, flagOnce, flagExplain = false, false, false
	flagExtractTypes = false
}

type fixture struct {
	dir     string
	root    string
	config  string
	auditTo string
}

func newFixture(t *testing.T, endpoint string) fixture {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "share")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "customers.csv"), []byte("name,id\nAda,SSN:123-45-6789\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "broken.docx"), []byte("not a document"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("nothing sensitive"), 0o644))

	host, port := "127.0.0.1", "9"
	if endpoint != "" {
		u, err := url.Parse(endpoint)
		require.NoError(t, err)
		host, port = u.Hostname(), u.Port()
	}
	f := fixture{dir: dir, root: root, auditTo: filepath.Join(dir, "audit.jsonl")}
	f.config = filepath.Join(dir, "dlpagent.yaml")
	body := fmt.Sprintf(`server_host: %s
server_port: %s
scan_path: %s
file_types: [csv, docx, txt]
polling_interval: 1
request_timeout: 2
max_retries: 0
requests_per_second: 100
audit_log: %s
custom_searches:
  - name: ssn
    regex: '\d{3}-\d{2}-\d{4}'
    prefixes: ["SSN:"]
`, host, port, root, f.auditTo)
	require.NoError(t, os.WriteFile(f.config, []byte(body), 0o644))
	return f
}

func TestConfigValidate(t *testing.T) {
	f := newFixture(t, "")
	out, err := execute(t, "", "config", "validate", "-c", f.config)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration OK")
	assert.Contains(t, out, "1 rule(s)")

	bad := filepath.Join(f.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server_host: x\n"), 0o644))
	_, err = execute(t, "", "config", "validate", "-c", bad)
	assert.ErrorIs(t, err, config.ErrMissingKey)
}

func TestConfigInitThenShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dlpagent.yaml")
	out, err := execute(t, "", "config", "init", "--output", path, "--scan-path", dir, "--file-types", "pdf, docx")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	_, err = execute(t, "", "config", "init", "--output", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out, err = execute(t, "", "config", "show", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "endpoint: http://127.0.0.1:8080")
	assert.Contains(t, out, "polling_interval: 1m0s")
	assert.Contains(t, out, "- docx")
}

func TestScanJSON(t *testing.T) {
	f := newFixture(t, "")
	out, err := execute(t, "", "scan", "-c", f.config, "--format", "json", "--baseline", filepath.Join(f.dir, "none.json"))
	require.NoError(t, err)

	var rep types.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep), out)
	assert.Equal(t, "dlpagent", rep.Tool)
	assert.Equal(t, f.root, rep.Root)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "customers.csv", rep.Findings[0].Path)
	assert.Equal(t, "123-45-6789", rep.Findings[0].Value)
}

func TestScanFailOnFindingsAndBaseline(t *testing.T) {
	f := newFixture(t, "")
	baseline := filepath.Join(f.dir, "baseline.json")

	_, err := execute(t, "", "scan", "-c", f.config, "--baseline", baseline, "--fail-on-findings")
	assert.ErrorIs(t, err, errFindings)

	out, err := execute(t, "", "baseline", "update", "-c", f.config, "--baseline", baseline)
	require.NoError(t, err)
	assert.Contains(t, out, "1 finding(s)")

	out, err = execute(t, "", "scan", "-c", f.config, "--baseline", baseline, "--fail-on-findings", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "No sensitive data found")
	assert.Contains(t, out, "Files skipped with errors: 1")
}

func TestScanDryRunAndBadFormat(t *testing.T) {
	f := newFixture(t, "")
	out, err := execute(t, "", "scan", "-c", f.config, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "3 file(s) would be scanned")

	_, err = execute(t, "", "scan", "-c", f.config, "--format", "xml")
	require.Error(t, err)
}

func TestExtractCommand(t *testing.T) {
	f := newFixture(t, "")
	out, err := execute(t, "", "extract", filepath.Join(f.root, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "nothing sensitive\n", out)

	_, err = execute(t, "", "extract", filepath.Join(f.root, "broken.docx"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "Word File Error:"), err.Error())

	_, err = execute(t, "", "extract", filepath.Join(f.dir, "mystery"))
	require.EqualError(t, err, "type undetermined")

	out, err = execute(t, "", "extract", "--types")
	require.NoError(t, err)
	assert.Contains(t, out, "application/pdf\n")
	assert.Contains(t, out, "text/csv\n")
	assert.NotContains(t, out, "application/msword")
}

func TestTestRulesFromStdin(t *testing.T) {
	f := newFixture(t, "")
	out, err := execute(t, "id SSN:987-65-4321 and SSN: 111-22-3333", "test-rules", "-c", f.config, "--explain", "-")
	require.NoError(t, err)
	assert.Contains(t, out, `ssn prefix="SSN:" suffix="" hits=2`)
	assert.Contains(t, out, "987-65-4321")
	assert.Contains(t, out, "111-22-3333")
	assert.Contains(t, out, "stdin")
}

type controller struct {
	srv       *httptest.Server
	mu        sync.Mutex
	shouldRun bool
	remote    string
	reports   []types.Report
	completes int
}

func newController(t *testing.T, shouldRun bool) *controller {
	c := &controller{shouldRun: shouldRun}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		defer c.mu.Unlock()
		switch r.URL.Path {
		case "/scan-status":
			fmt.Fprintf(w, `{"should_run": %t}`, c.shouldRun)
		case "/config":
			_, _ = io.WriteString(w, c.remote)
		case "/data":
			var rep types.Report
			if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			c.reports = append(c.reports, rep)
		case "/scan-complete":
			c.completes++
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(c.srv.Close)
	return c
}

func TestRunOnce(t *testing.T) {
	ctl := newController(t, true)
	f := newFixture(t, ctl.srv.URL)

	_, err := execute(t, "", "run", "--once", "-c", f.config)
	require.NoError(t, err)

	ctl.mu.Lock()
	require.Len(t, ctl.reports, 1)
	assert.Len(t, ctl.reports[0].Findings, 1)
	assert.Equal(t, 1, ctl.completes)
	ctl.mu.Unlock()

	out, err := execute(t, "", "history", "-c", f.config)
	require.NoError(t, err)
	assert.Contains(t, out, "reported")
}

func TestRunOnce_NotAuthorized(t *testing.T) {
	ctl := newController(t, false)
	f := newFixture(t, ctl.srv.URL)

	_, err := execute(t, "", "run", "--once", "-c", f.config)
	require.NoError(t, err)
	assert.Empty(t, ctl.reports)
	assert.Zero(t, ctl.completes)
	_, statErr := os.Stat(f.auditTo)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestRunOnce_RemoteConfig(t *testing.T) {
	ctl := newController(t, true)
	f := newFixture(t, ctl.srv.URL)
	other := filepath.Join(f.dir, "other")
	require.NoError(t, os.MkdirAll(other, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(other, "a.txt"), []byte("SSN:222-33-4444 SSN:555-66-7777"), 0o644))
	ctl.remote = fmt.Sprintf(`{"scan_path": %q, "file_types": ["txt"]}`, other)

	_, err := execute(t, "", "run", "--once", "--remote-config", "-c", f.config)
	require.NoError(t, err)
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	require.Len(t, ctl.reports, 1)
	assert.Equal(t, other, ctl.reports[0].Root)
	assert.Len(t, ctl.reports[0].Findings, 2)
}

func TestRunOnce_ControllerDown(t *testing.T) {
	f := newFixture(t, "")
	_, err := execute(t, "", "run", "--once", "-c", f.config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authorize")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "dlpagent "+version+"\n", out)
}

func TestIgnoreAddExcludesFile(t *testing.T) {
	f := newFixture(t, "")
	_, err := execute(t, "", "ignore", "add", "-c", f.config, "customers.csv")
	require.NoError(t, err)

	out, err := execute(t, "", "scan", "-c", f.config, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "2 file(s) would be scanned")
}
