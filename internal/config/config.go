package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Text mode constants
	TextModeLayout = "layout"
	TextModePlain  = "plain"

	// Log format constants
	LogFormatConsole = "console"
	LogFormatJSON    = "json"

	// Duplicate policy constants
	DuplicateFirst = "first"
	DuplicateLast  = "last"
	DuplicateError = "error"

	// Default values
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultOutputFolder = "StratX_Results"
	DefaultOutputPrefix = "StratX_Parsed_Results"

	// Directory permissions
	DefaultDirPerm = 0o750

	// EnvPrefix is prepended to every environment variable name
	EnvPrefix = "CTREPORT"

	timestampLayout = "20060102_150405"
)

// Flag and viper keys
const (
	KeyConfig          = "config"
	KeyRoot            = "root"
	KeyOutputDir       = "output-dir"
	KeyOutputPrefix    = "output-prefix"
	KeyTextMode        = "text-mode"
	KeyMaxFileSize     = "max-file-size"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
	KeyIncludeLocation = "include-location"
	KeyBOM             = "bom"
	KeyClean           = "clean"
	KeyManifest        = "manifest"
	KeyMetricsFile     = "metrics-file"
	KeyDuplicates      = "duplicates"
	KeyProbe           = "probe"
	KeyRedact          = "redact"
)

// Config holds all configuration for the report extractor
type Config struct {
	// Input
	RootDir     string
	TextMode    string
	MaxFileSize int64 // Maximum PDF file size in bytes

	// Output
	OutputDir       string // empty means <RootDir>/StratX_Results
	OutputPrefix    string
	IncludeLocation bool
	WriteBOM        bool
	WriteClean      bool
	WriteManifest   bool
	MetricsFile     string
	DuplicatePolicy string
	ProbeWithPDFCPU bool

	// Application configuration
	Version         string
	ServerName      string
	LogLevel        string
	LogFormat       string
	RedactPatientID bool
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		RootDir:         currentDir,
		TextMode:        TextModeLayout,
		MaxFileSize:     DefaultMaxFileSize,
		OutputPrefix:    DefaultOutputPrefix,
		WriteBOM:        true,
		DuplicatePolicy: DuplicateFirst,
		ProbeWithPDFCPU: true,
		Version:         "1.0.0",
		ServerName:      "ctreport-extractor",
		LogLevel:        DefaultLogLevel,
		LogFormat:       LogFormatConsole,
	}
}

// DefineFlags registers every configuration flag on fs, using cfg for defaults.
func DefineFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String(KeyConfig, "", "Optional config file (yaml, json, toml)")
	fs.String(KeyRoot, cfg.RootDir, "Root directory scanned for PDF reports")
	fs.String(KeyOutputDir, cfg.OutputDir, "Output directory (default <root>/"+DefaultOutputFolder+")")
	fs.String(KeyOutputPrefix, cfg.OutputPrefix, "Output file name prefix")
	fs.String(KeyTextMode, cfg.TextMode, "PDF text assembly: 'layout' rebuilds rows from glyph positions, 'plain' uses stream order")
	fs.Int64(KeyMaxFileSize, cfg.MaxFileSize, "Maximum PDF file size in bytes")
	fs.String(KeyLogLevel, cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.String(KeyLogFormat, cfg.LogFormat, "Log format (console, json)")
	fs.Bool(KeyIncludeLocation, cfg.IncludeLocation, "Add Site and Folder Name columns")
	fs.Bool(KeyBOM, cfg.WriteBOM, "Start the CSV with a UTF-8 byte order mark")
	fs.Bool(KeyClean, cfg.WriteClean, "Also write a CSV with only complete rows")
	fs.Bool(KeyManifest, cfg.WriteManifest, "Also write a JSON run manifest")
	fs.String(KeyMetricsFile, cfg.MetricsFile, "Write Prometheus metrics in textfile format to this path")
	fs.String(KeyDuplicates, cfg.DuplicatePolicy, "Duplicate key policy (first, last, error)")
	fs.Bool(KeyProbe, cfg.ProbeWithPDFCPU, "Probe each PDF structure with pdfcpu")
	fs.Bool(KeyRedact, cfg.RedactPatientID, "Hash patient identifiers in log output")
}

// Load resolves configuration from fs, CTREPORT_* environment variables and
// an optional config file, in that order of precedence.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := DefaultConfig()
	populateConfigFromViper(v, cfg)

	// Expand paths if needed
	if cfg.RootDir != "" {
		if expandedPath, err := filepath.Abs(cfg.RootDir); err == nil {
			cfg.RootDir = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.RootDir = v.GetString(KeyRoot)
	cfg.OutputDir = v.GetString(KeyOutputDir)
	cfg.OutputPrefix = v.GetString(KeyOutputPrefix)
	cfg.TextMode = strings.ToLower(v.GetString(KeyTextMode))
	cfg.MaxFileSize = v.GetInt64(KeyMaxFileSize)
	cfg.LogLevel = strings.ToLower(v.GetString(KeyLogLevel))
	cfg.LogFormat = strings.ToLower(v.GetString(KeyLogFormat))
	cfg.IncludeLocation = v.GetBool(KeyIncludeLocation)
	cfg.WriteBOM = v.GetBool(KeyBOM)
	cfg.WriteClean = v.GetBool(KeyClean)
	cfg.WriteManifest = v.GetBool(KeyManifest)
	cfg.MetricsFile = v.GetString(KeyMetricsFile)
	cfg.DuplicatePolicy = strings.ToLower(v.GetString(KeyDuplicates))
	cfg.ProbeWithPDFCPU = v.GetBool(KeyProbe)
	cfg.RedactPatientID = v.GetBool(KeyRedact)
}

// Validate checks if the configuration is valid. Whether RootDir exists is
// left to the batch runner.
func (c *Config) Validate() error {
	if c.RootDir == "" {
		return errors.New("root directory cannot be empty")
	}

	if c.TextMode != TextModeLayout && c.TextMode != TextModePlain {
		return fmt.Errorf("invalid text mode: %s (must be one of: layout, plain)", c.TextMode)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.OutputPrefix == "" {
		return errors.New("output prefix cannot be empty")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != LogFormatConsole && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("invalid log format: %s (must be one of: console, json)", c.LogFormat)
	}

	switch c.DuplicatePolicy {
	case DuplicateFirst, DuplicateLast, DuplicateError:
	default:
		return fmt.Errorf("invalid duplicate policy: %s (must be one of: first, last, error)", c.DuplicatePolicy)
	}

	return nil
}

// ResolvedOutputDir returns OutputDir, or the default folder under RootDir
func (c *Config) ResolvedOutputDir() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return filepath.Join(c.RootDir, DefaultOutputFolder)
}

// OutputFileName returns the timestamped export file name for a run started at t
func (c *Config) OutputFileName(t time.Time) string {
	return c.OutputPrefix + "_" + t.Format(timestampLayout) + ".csv"
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{RootDir: %s, OutputDir: %s, TextMode: %s, LogLevel: %s, MaxFileSize: %d, Duplicates: %s}",
		c.RootDir, c.ResolvedOutputDir(), c.TextMode, c.LogLevel, c.MaxFileSize, c.DuplicatePolicy)
}
