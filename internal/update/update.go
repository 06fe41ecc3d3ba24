// Package update checks GitHub releases for a newer dlpagent build.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	semver "github.com/blang/semver/v4"
)

const (
	// Slug is the GitHub repository releases are published from.
	Slug          = "redactyl/dlpagent"
	cacheFileName = "update.json"
	cacheTTL      = 24 * time.Hour
)

type cache struct {
	LastChecked time.Time `json:"last_checked"`
	Latest      string    `json:"latest"`
}

// Checker looks up the latest release, caching the answer on disk.
type Checker struct {
	URL      string
	CacheDir string
	Client   *http.Client
}

// NewChecker returns a Checker for the public release feed, caching under
// the user's config directory.
func NewChecker() *Checker {
	return &Checker{
		URL:      "https://api.github.com/repos/" + Slug + "/releases/latest",
		CacheDir: configDir(),
		Client:   &http.Client{Timeout: 2 * time.Second},
	}
}

func configDir() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "dlpagent")
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "dlpagent")
}

func (c *Checker) loadCache() (cache, error) {
	var ch cache
	if c.CacheDir == "" {
		return ch, errors.New("no config dir")
	}
	b, err := os.ReadFile(filepath.Join(c.CacheDir, cacheFileName))
	if err != nil {
		return ch, err
	}
	_ = json.Unmarshal(b, &ch)
	return ch, nil
}

func (c *Checker) saveCache(ch cache) {
	if c.CacheDir == "" {
		return
	}
	_ = os.MkdirAll(c.CacheDir, 0o755)
	b, _ := json.MarshalIndent(ch, "", "  ")
	_ = os.WriteFile(filepath.Join(c.CacheDir, cacheFileName), b, 0o644)
}

func (c *Checker) latestOnline(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "dlpagent-updater")
	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release lookup: status %d", resp.StatusCode)
	}
	var obj struct {
		TagName string `json:"tag_name"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return "", err
	}
	v := obj.TagName
	if v == "" {
		v = obj.Name
	}
	return v, nil
}

// Check returns the latest known version and whether it is newer than
// current. Answers are cached for a day; nothing is fetched in CI or when
// noNetwork is set.
func (c *Checker) Check(ctx context.Context, current string, noNetwork bool) (string, bool, error) {
	if os.Getenv("CI") != "" || noNetwork {
		return "", false, nil
	}
	current = normalize(current)
	ch, _ := c.loadCache()
	latest := ch.Latest
	if time.Since(ch.LastChecked) > cacheTTL || latest == "" {
		if v, err := c.latestOnline(ctx); err == nil {
			latest = normalize(v)
			ch.Latest = latest
			ch.LastChecked = time.Now()
			c.saveCache(ch)
		}
	}
	if latest == "" || current == "" {
		return latest, false, nil
	}
	return latest, compare(latest, current) > 0, nil
}

// Check runs the default Checker.
func Check(current string, noNetwork bool) (string, bool, error) {
	return NewChecker().Check(context.Background(), current, noNetwork)
}

func normalize(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// compare orders two versions semantically. Unparseable versions compare
// equal so they never trigger an update prompt.
func compare(a, b string) int {
	av, err := semver.ParseTolerant(a)
	if err != nil {
		return 0
	}
	bv, err := semver.ParseTolerant(b)
	if err != nil {
		return 0
	}
	return av.Compare(bv)
}
