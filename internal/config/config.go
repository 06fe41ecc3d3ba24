package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/redactyl/dlpagent/internal/rules"
)

var (
	// ErrMissingKey is returned when a required configuration key is absent.
	ErrMissingKey = errors.New("missing configuration key")
	// ErrInvalid is returned when a key is present but its value is unusable.
	ErrInvalid = errors.New("invalid configuration")
	// ErrNotFound is returned by Locate when no config file exists.
	ErrNotFound = errors.New("no config file found")
)

// Defaults for optional keys.
const (
	DefaultScheme            = "http"
	DefaultMaxBytes          = 64 << 20
	DefaultFileTimeout       = 60 * time.Second
	DefaultRequestTimeout    = 30 * time.Second
	DefaultMaxRetries        = 3
	DefaultRequestsPerSecond = 5.0
)

// FileConfig is the on-disk configuration shape. Pointer fields distinguish
// an absent key from a zero value.
type FileConfig struct {
	ServerHost      *string      `yaml:"server_host" json:"server_host" validate:"required,min=1"`
	ServerPort      *int         `yaml:"server_port" json:"server_port" validate:"required,min=1,max=65535"`
	CustomSearches  []rules.Rule `yaml:"custom_searches" json:"custom_searches" validate:"required,dive"`
	ScanPath        *string      `yaml:"scan_path" json:"scan_path" validate:"required,min=1"`
	FileTypes       []string     `yaml:"file_types" json:"file_types" validate:"required,dive,min=1"`
	PollingInterval *float64     `yaml:"polling_interval" json:"polling_interval" validate:"required,gt=0"`

	Scheme            *string  `yaml:"scheme,omitempty" json:"scheme,omitempty" validate:"omitempty,oneof=http https"`
	Exclude           []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	DefaultExcludes   *bool    `yaml:"default_excludes,omitempty" json:"default_excludes,omitempty"`
	MaxBytes          *int64   `yaml:"max_bytes,omitempty" json:"max_bytes,omitempty" validate:"omitempty,min=0"`
	FileTimeout       *float64 `yaml:"file_timeout,omitempty" json:"file_timeout,omitempty" validate:"omitempty,gt=0"`
	RequestTimeout    *float64 `yaml:"request_timeout,omitempty" json:"request_timeout,omitempty" validate:"omitempty,gt=0"`
	MaxRetries        *int     `yaml:"max_retries,omitempty" json:"max_retries,omitempty" validate:"omitempty,min=0"`
	RequestsPerSecond *float64 `yaml:"requests_per_second,omitempty" json:"requests_per_second,omitempty" validate:"omitempty,gt=0"`
	AuditLog          *string  `yaml:"audit_log,omitempty" json:"audit_log,omitempty"`
	LogFile           *string  `yaml:"log_file,omitempty" json:"log_file,omitempty"`
}

// Config is the resolved, validated configuration.
type Config struct {
	Endpoint          string
	Rules             []rules.Rule
	ScanPath          string
	FileTypes         []string
	PollingInterval   time.Duration
	Exclude           []string
	DefaultExcludes   bool
	MaxBytes          int64
	FileTimeout       time.Duration
	RequestTimeout    time.Duration
	MaxRetries        int
	RequestsPerSecond float64
	AuditLog          string
	LogFile           string
}

// Decode parses JSON or YAML bytes. JSON is detected by a leading '{'.
func Decode(b []byte) (FileConfig, error) {
	var fc FileConfig
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &fc); err != nil {
			return fc, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		return fc, nil
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return fc, nil
}

// LoadFile reads and decodes a config file without validating it.
func LoadFile(path string) (FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config: %w", err)
	}
	return Decode(b)
}

// Load reads, validates and resolves the config file at path.
func Load(path string) (Config, error) {
	fc, err := LoadFile(path)
	if err != nil {
		return Config{}, err
	}
	return fc.Resolve()
}

// Locate returns explicit when set, otherwise the first existing candidate
// in the working directory, then the user config dir, then /etc/dlpagent.
func Locate(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	names := []string{"dlpagent.json", "dlpagent.yaml", "dlpagent.yml", ".dlpagent.json", ".dlpagent.yml"}
	var dirs []string
	dirs = append(dirs, ".")
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		if home, _ := os.UserHomeDir(); home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base != "" {
		dirs = append(dirs, filepath.Join(base, "dlpagent"))
	}
	dirs = append(dirs, "/etc/dlpagent")
	for _, d := range dirs {
		for _, n := range names {
			p := filepath.Join(d, n)
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				return p, nil
			}
		}
	}
	return "", ErrNotFound
}

// Merge returns base with every key present in over replacing base's value.
func Merge(base, over FileConfig) FileConfig {
	out := base
	if over.ServerHost != nil {
		out.ServerHost = over.ServerHost
	}
	if over.ServerPort != nil {
		out.ServerPort = over.ServerPort
	}
	if over.CustomSearches != nil {
		out.CustomSearches = over.CustomSearches
	}
	if over.ScanPath != nil {
		out.ScanPath = over.ScanPath
	}
	if over.FileTypes != nil {
		out.FileTypes = over.FileTypes
	}
	if over.PollingInterval != nil {
		out.PollingInterval = over.PollingInterval
	}
	if over.Scheme != nil {
		out.Scheme = over.Scheme
	}
	if over.Exclude != nil {
		out.Exclude = over.Exclude
	}
	if over.DefaultExcludes != nil {
		out.DefaultExcludes = over.DefaultExcludes
	}
	if over.MaxBytes != nil {
		out.MaxBytes = over.MaxBytes
	}
	if over.FileTimeout != nil {
		out.FileTimeout = over.FileTimeout
	}
	if over.RequestTimeout != nil {
		out.RequestTimeout = over.RequestTimeout
	}
	if over.MaxRetries != nil {
		out.MaxRetries = over.MaxRetries
	}
	if over.RequestsPerSecond != nil {
		out.RequestsPerSecond = over.RequestsPerSecond
	}
	if over.AuditLog != nil {
		out.AuditLog = over.AuditLog
	}
	if over.LogFile != nil {
		out.LogFile = over.LogFile
	}
	return out
}

// Endpoint returns the controller base URL from a possibly incomplete
// file. It is used to bootstrap remote configuration before validation.
func (fc FileConfig) Endpoint() (string, error) {
	if fc.ServerHost == nil || *fc.ServerHost == "" {
		return "", fmt.Errorf("%w: server_host", ErrMissingKey)
	}
	if fc.ServerPort == nil {
		return "", fmt.Errorf("%w: server_port", ErrMissingKey)
	}
	return endpoint(pickString(fc.Scheme, DefaultScheme), *fc.ServerHost, *fc.ServerPort), nil
}

// Resolve validates fc and applies defaults.
func (fc FileConfig) Resolve() (Config, error) {
	if err := fc.Validate(); err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:          endpoint(pickString(fc.Scheme, DefaultScheme), *fc.ServerHost, *fc.ServerPort),
		Rules:             fc.CustomSearches,
		ScanPath:          filepath.Clean(*fc.ScanPath),
		FileTypes:         NormalizeExtensions(fc.FileTypes),
		PollingInterval:   seconds(*fc.PollingInterval),
		Exclude:           fc.Exclude,
		DefaultExcludes:   pickBool(fc.DefaultExcludes, false),
		MaxBytes:          pickInt64(fc.MaxBytes, DefaultMaxBytes),
		FileTimeout:       pickSeconds(fc.FileTimeout, DefaultFileTimeout),
		RequestTimeout:    pickSeconds(fc.RequestTimeout, DefaultRequestTimeout),
		MaxRetries:        pickInt(fc.MaxRetries, DefaultMaxRetries),
		RequestsPerSecond: pickFloat(fc.RequestsPerSecond, DefaultRequestsPerSecond),
		AuditLog:          pickString(fc.AuditLog, ""),
		LogFile:           pickString(fc.LogFile, ""),
	}
	return cfg, nil
}

// NormalizeExtensions lowercases extensions and strips a leading dot.
func NormalizeExtensions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func endpoint(scheme, host string, port int) string {
	return scheme + "://" + net.JoinHostPort(host, strconv.Itoa(port))
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func pickString(v *string, def string) string {
	if v != nil && *v != "" {
		return *v
	}
	return def
}

func pickBool(v *bool, def bool) bool {
	if v != nil {
		return *v
	}
	return def
}

func pickInt(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func pickInt64(v *int64, def int64) int64 {
	if v != nil {
		return *v
	}
	return def
}

func pickFloat(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}

func pickSeconds(v *float64, def time.Duration) time.Duration {
	if v != nil {
		return seconds(*v)
	}
	return def
}
