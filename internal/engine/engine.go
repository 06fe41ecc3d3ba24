package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/redactyl/dlpagent/internal/config"
	"github.com/redactyl/dlpagent/internal/extract"
	"github.com/redactyl/dlpagent/internal/ignore"
	"github.com/redactyl/dlpagent/internal/logging"
	"github.com/redactyl/dlpagent/internal/rules"
	"github.com/redactyl/dlpagent/internal/types"
)

// ErrTooLarge marks files skipped because they exceed Config.MaxBytes.
var ErrTooLarge = errors.New("file exceeds size limit")

// Config controls one walk of a scan root.
type Config struct {
	Root            string
	FileTypes       []string
	Exclude         []string
	DefaultExcludes bool
	MaxBytes        int64
	// FileTimeout bounds extraction of a single file. Zero means no limit.
	FileTimeout time.Duration
	Rules       []rules.Rule
	Logger      zerolog.Logger
	// Progress, when set, is called after each visited file.
	Progress func(rel string)
}

// FromConfig builds an engine Config from the agent configuration.
func FromConfig(c config.Config, logger zerolog.Logger) Config {
	return Config{
		Root:            c.ScanPath,
		FileTypes:       config.NormalizeExtensions(c.FileTypes),
		Exclude:         c.Exclude,
		DefaultExcludes: c.DefaultExcludes,
		MaxBytes:        c.MaxBytes,
		FileTimeout:     c.FileTimeout,
		Rules:           c.Rules,
		Logger:          logger,
	}
}

// Extractor turns a file into searchable text. *extract.Dispatcher
// satisfies it.
type Extractor interface {
	Extract(ctx context.Context, path string) extract.Outcome
}

// FileError records a file that could not be processed.
type FileError struct {
	Path string
	Err  error
}

func (e FileError) Error() string { return e.Path + ": " + e.Err.Error() }

func (e FileError) Unwrap() error { return e.Err }

// Result is the outcome of one ScanTree call.
type Result struct {
	Findings     []types.Finding
	FilesScanned int
	FileErrors   []FileError
	Duration     time.Duration
}

// ScanTree walks cfg.Root and searches every accepted file with cfg.Rules.
// Files are processed sequentially in walk order. Per-file failures land in
// Result.FileErrors; the returned error is reserved for failures of the walk
// itself, including ctx cancellation.
func ScanTree(ctx context.Context, cfg Config, ex Extractor) (Result, error) {
	start := time.Now()
	log := logging.Component(cfg.Logger, "engine").With().Str("root", cfg.Root).Logger()
	var res Result

	ign, err := ignore.Load(filepath.Join(cfg.Root, ignore.FileName))
	if err != nil {
		log.Warn().Err(err).Msg("Ignoring unreadable ignore file")
	} else if ign.Len() > 0 {
		log.Debug().Int("patterns", ign.Len()).Msg("Ignore file loaded")
	}

	fail := func(rel string, err error) {
		log.Warn().Str("path", rel).Err(err).Msg("File skipped")
		res.FileErrors = append(res.FileErrors, FileError{Path: rel, Err: err})
	}

	err = Walk(ctx, cfg, ign, func(rel, abs string) error {
		res.FilesScanned++
		found, err := scanFile(ctx, cfg, ex, rel, abs)
		if cfg.Progress != nil {
			cfg.Progress(rel)
		}
		if err != nil {
			// A cancelled cycle is not a per-file failure.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			fail(rel, err)
		}
		if len(found) > 0 {
			log.Debug().Str("path", rel).Int("matches", len(found)).Msg("Matches found")
			res.Findings = append(res.Findings, found...)
		}
		return nil
	}, fail)

	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}
	log.Info().
		Int("files", res.FilesScanned).
		Int("findings", len(res.Findings)).
		Int("errors", len(res.FileErrors)).
		Dur("duration", res.Duration).
		Msg("Walk completed")
	return res, nil
}

// scanFile processes one file. The outcome text is searched even when
// extraction failed, so a failure may return both findings and an error.
// Panics are converted into errors so the walk can move on to the next file.
func scanFile(ctx context.Context, cfg Config, ex Extractor, rel, abs string) (found []types.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			found, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	fctx := ctx
	if cfg.FileTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, cfg.FileTimeout)
		defer cancel()
	}

	out := ex.Extract(fctx, abs)
	matches, err := rules.Search(cfg.Rules, out.Text)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		found = append(found, types.Finding{
			Path:        rel,
			Rule:        m.Rule,
			Value:       m.Value,
			Fingerprint: rules.Fingerprint(rel, m.Rule, m.Value),
		})
	}
	if out.Failed() {
		return found, extractionError{text: out.Text, err: out.Err}
	}
	return found, nil
}

// extractionError carries the outcome text of a failed extraction while
// still unwrapping to the cause.
type extractionError struct {
	text string
	err  error
}

func (e extractionError) Error() string { return e.text }

func (e extractionError) Unwrap() error { return e.err }
