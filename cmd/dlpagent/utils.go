package dlpagent

import (
	"fmt"
	"io"
	"runtime/debug"

	semver3 "github.com/blang/semver"
	semver "github.com/blang/semver/v4"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/redactyl/dlpagent/internal/config"
	"github.com/redactyl/dlpagent/internal/logging"
	"github.com/redactyl/dlpagent/internal/update"
)

// loadFileConfig locates and decodes the config file without validating it.
func loadFileConfig() (config.FileConfig, string, error) {
	path, err := config.Locate(flagConfig)
	if err != nil {
		return config.FileConfig{}, "", err
	}
	fc, err := config.LoadFile(path)
	if err != nil {
		return config.FileConfig{}, path, fmt.Errorf("config %s: %w", path, err)
	}
	return fc, path, nil
}

// loadConfig locates, validates and resolves the config file.
func loadConfig() (config.Config, string, error) {
	fc, path, err := loadFileConfig()
	if err != nil {
		return config.Config{}, path, err
	}
	cfg, err := fc.Resolve()
	if err != nil {
		return config.Config{}, path, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, path, nil
}

func newLogger(cmd *cobra.Command, file string) (zerolog.Logger, io.Closer, error) {
	return logging.New(logging.Options{
		Verbosity: flagVerbose,
		File:      file,
		JSON:      flagLogJSON,
		NoColor:   flagNoColor,
		Out:       cmd.ErrOrStderr(),
	})
}

func selfUpdate() (string, error) {
	v := version
	// Use build info if tag overridden at build-time
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(v) == 0 {
				v = s.Value
			}
		}
	}
	ver, err := semver.ParseTolerant(v)
	if err != nil {
		ver = semver.MustParse("0.0.0")
	}
	latest, err := selfupdate.UpdateSelf(semver3.MustParse(ver.String()), update.Slug)
	if err != nil {
		return "", err
	}
	return latest.Version.String(), nil
}
