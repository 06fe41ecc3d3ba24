package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/redactyl/dlpagent/internal/config"
	"github.com/redactyl/dlpagent/internal/engine"
	"github.com/redactyl/dlpagent/internal/extract"
	"github.com/redactyl/dlpagent/internal/rules"
	"github.com/redactyl/dlpagent/internal/types"
)

// Re-export selected internal types as a stable public API surface.
type (
	Rule        = rules.Rule
	MatchRecord = types.MatchRecord
	Finding     = types.Finding
	Report      = types.Report
	Outcome     = extract.Outcome
	Result      = engine.Result
)

// Config describes a one-off tree scan.
type Config struct {
	Root      string
	FileTypes []string
	Rules     []Rule
	// Exclude holds doublestar globs relative to Root.
	Exclude         []string
	DefaultExcludes bool
	MaxBytes        int64
	Logger          *zerolog.Logger
}

// Search applies rules to text and returns censored matches.
func Search(rs []Rule, text string) ([]MatchRecord, error) {
	return rules.Search(rs, text)
}

// Censor masks a matched value the way Search does.
func Censor(value string) string { return rules.Censor(value) }

// Extract returns the text content of the file at path, or a description of
// why it could not be read.
func Extract(ctx context.Context, path string) Outcome {
	return extract.New().Extract(ctx, path)
}

// ScanTree walks cfg.Root with the built-in extractors.
func ScanTree(ctx context.Context, cfg Config) (Result, error) {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	ec := engine.Config{
		Root:            cfg.Root,
		FileTypes:       config.NormalizeExtensions(cfg.FileTypes),
		Exclude:         cfg.Exclude,
		DefaultExcludes: cfg.DefaultExcludes,
		MaxBytes:        cfg.MaxBytes,
		Rules:           cfg.Rules,
		Logger:          logger,
	}
	return engine.ScanTree(ctx, ec, extract.New())
}
