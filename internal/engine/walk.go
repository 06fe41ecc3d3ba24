package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/redactyl/dlpagent/internal/ignore"
)

// Walk traverses cfg.Root in lexical order and calls handle for every file
// that passes the extension, exclude, ignore and size filters. rel is
// slash-separated and relative to the root. Symlinks to files are followed
// and visited under the link's path; symlinks to directories are not. Entries that cannot be read are
// reported through skip and the walk continues. Only a missing or
// unreadable root, a cancelled ctx, or an error returned by handle stops it.
func Walk(ctx context.Context, cfg Config, ign ignore.Matcher, handle func(rel, abs string) error, skip func(rel string, err error)) error {
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("scan root %s: not a directory", cfg.Root)
	}
	if skip == nil {
		skip = func(string, error) {}
	}

	return filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel, _ := filepath.Rel(cfg.Root, p)
		rel = filepath.ToSlash(rel)
		if err != nil {
			if p == cfg.Root {
				return fmt.Errorf("scan root: %w", err)
			}
			skip(rel, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p == cfg.Root {
				return nil
			}
			if cfg.DefaultExcludes && isDefaultDirExcluded(d.Name()) {
				return filepath.SkipDir
			}
			if ign.MatchDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !acceptsExt(rel, cfg.FileTypes) {
			return nil
		}
		if cfg.DefaultExcludes && isDefaultFileExcluded(rel) {
			return nil
		}
		if excludedByGlobs(rel, cfg.Exclude) || ign.Match(rel) {
			return nil
		}
		var fi fs.FileInfo
		switch {
		case d.Type().IsRegular():
		case d.Type()&fs.ModeSymlink != 0:
			// File symlinks are followed; directory symlinks are not.
			fi, err = os.Stat(p)
			if err != nil {
				skip(rel, err)
				return nil
			}
			if !fi.Mode().IsRegular() {
				return nil
			}
		default:
			return nil
		}
		if cfg.MaxBytes > 0 {
			if fi == nil {
				fi, _ = d.Info()
			}
			if fi != nil && fi.Size() > cfg.MaxBytes {
				skip(rel, fmt.Errorf("%w: %d bytes", ErrTooLarge, fi.Size()))
				return nil
			}
		}
		return handle(rel, p)
	})
}

// CountTargets returns how many files a scan of cfg would visit.
func CountTargets(ctx context.Context, cfg Config) (int, error) {
	ign, err := ignore.Load(filepath.Join(cfg.Root, ignore.FileName))
	if err != nil {
		return 0, err
	}
	n := 0
	err = Walk(ctx, cfg, ign, func(string, string) error {
		n++
		return nil
	}, nil)
	return n, err
}
