package dlpagent

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/redactyl/dlpagent/internal/config"
	"github.com/redactyl/dlpagent/internal/rules"
)

var (
	cfgOutput    string
	cfgHost      string
	cfgPort      int
	cfgScanPath  string
	cfgFileTypes string
	cfgInterval  float64
	cfgForce     bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter dlpagent.yaml",
		Args:  cobra.NoArgs,
		RunE:  runConfigInit,
	}
	initCmd.Flags().StringVar(&cfgOutput, "output", "dlpagent.yaml", "output file path")
	initCmd.Flags().StringVar(&cfgHost, "host", "127.0.0.1", "controller host")
	initCmd.Flags().IntVar(&cfgPort, "port", 8080, "controller port")
	initCmd.Flags().StringVar(&cfgScanPath, "scan-path", "/srv/share", "directory to scan")
	initCmd.Flags().StringVar(&cfgFileTypes, "file-types", "pdf,docx,xlsx,csv,txt", "comma-separated extensions to scan")
	initCmd.Flags().Float64Var(&cfgInterval, "polling-interval", 60, "seconds between controller polls")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the config file and exit non-zero when it is unusable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK: %s (%d rule(s), %d file type(s), controller %s)\n",
				path, len(cfg.Rules), len(cfg.FileTypes), cfg.Endpoint)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			b, err := yaml.Marshal(effective(cfg))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	})
}

type effectiveConfig struct {
	Endpoint          string       `yaml:"endpoint"`
	ScanPath          string       `yaml:"scan_path"`
	FileTypes         []string     `yaml:"file_types"`
	PollingInterval   string       `yaml:"polling_interval"`
	Exclude           []string     `yaml:"exclude,omitempty"`
	DefaultExcludes   bool         `yaml:"default_excludes"`
	MaxBytes          int64        `yaml:"max_bytes"`
	FileTimeout       string       `yaml:"file_timeout"`
	RequestTimeout    string       `yaml:"request_timeout"`
	MaxRetries        int          `yaml:"max_retries"`
	RequestsPerSecond float64      `yaml:"requests_per_second"`
	AuditLog          string       `yaml:"audit_log,omitempty"`
	LogFile           string       `yaml:"log_file,omitempty"`
	CustomSearches    []rules.Rule `yaml:"custom_searches"`
}

func effective(c config.Config) effectiveConfig {
	return effectiveConfig{
		Endpoint:          c.Endpoint,
		ScanPath:          c.ScanPath,
		FileTypes:         c.FileTypes,
		PollingInterval:   c.PollingInterval.String(),
		Exclude:           c.Exclude,
		DefaultExcludes:   c.DefaultExcludes,
		MaxBytes:          c.MaxBytes,
		FileTimeout:       c.FileTimeout.String(),
		RequestTimeout:    c.RequestTimeout.String(),
		MaxRetries:        c.MaxRetries,
		RequestsPerSecond: c.RequestsPerSecond,
		AuditLog:          c.AuditLog,
		LogFile:           c.LogFile,
		CustomSearches:    c.Rules,
	}
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if !cfgForce {
		if _, err := os.Stat(cfgOutput); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	var types []string
	for _, t := range strings.Split(cfgFileTypes, ",") {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	fc := config.FileConfig{
		ServerHost: strPtr(cfgHost),
		ServerPort: intPtr(cfgPort),
		CustomSearches: []rules.Rule{
			{Name: "US SSN", Regex: `\d{3}-\d{2}-\d{4}`, Prefixes: []string{"SSN:", "SSN "}},
			{Name: "Card number", Regex: `\d{4}[ -]?\d{4}[ -]?\d{4}[ -]?\d{4}`},
		},
		ScanPath:        strPtr(cfgScanPath),
		FileTypes:       types,
		PollingInterval: floatPtr(cfgInterval),
		DefaultExcludes: boolPtr(false),
	}
	if err := fc.Validate(); err != nil {
		return err
	}
	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0o600); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", cfgOutput)
	return nil
}

func strPtr(s string) *string     { return &s }
func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
