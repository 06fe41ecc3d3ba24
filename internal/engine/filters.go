package engine

import (
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// Directories skipped when default_excludes is turned on. Names match
// exactly; the option is off unless configured.
var defaultExcludeDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	".cache":       true,
	".Trash":       true,
	"$RECYCLE.BIN": true,
}

// lockfiles and OS cruft that can carry an accepted extension
var defaultExcludeFileNames = map[string]bool{
	"package-lock.json": true,
	"pnpm-lock.yaml":    true,
	"yarn.lock":         true,
	"composer.lock":     true,
	"poetry.lock":       true,
	".ds_store":         true,
	"thumbs.db":         true,
	"desktop.ini":       true,
}

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name]
}

func isDefaultFileExcluded(rel string) bool {
	base := strings.ToLower(filepath.Base(rel))
	return defaultExcludeFileNames[base] || strings.HasPrefix(base, "~$")
}

// acceptsExt reports whether rel's extension is one of types. types are
// expected lowercase without the leading dot.
func acceptsExt(rel string, types []string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(rel), "."))
	if ext == "" {
		return false
	}
	for _, t := range types {
		if t == ext {
			return true
		}
	}
	return false
}

func excludedByGlobs(rel string, globs []string) bool {
	if len(globs) == 0 {
		return false
	}
	return matchAnyGlob(filepath.ToSlash(rel), globs)
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		g = strings.TrimPrefix(strings.TrimSpace(g), "./")
		if g == "" {
			continue
		}
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}
