package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/doc-intake/internal/intake"
	"github.com/a3tai/doc-intake/internal/requirement"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultLogLevel        = "info"
	DefaultVerifierBackend = "auto"

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "DOC_INTAKE"
)

// Config holds all configuration for the document intake server
type Config struct {
	Mode string // "server" or "stdio"

	// UploadDirectory is the only directory files are loaded from
	UploadDirectory string

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string

	// Upload constraints
	AllowedTypes      []string
	MaxFileSizeMB     float64
	MaxFiles          int
	FileSizeErrorText string
	MaxFilesErrorText string

	// Requirement dropdown
	Options          string // flat key,label,limit list
	Blacklist1       string
	Blacklist2       string
	Selected         string
	EmploymentStatus string

	VerifierBackend string // "pdfcpu", "ledongthuc" or "auto"
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:            ModeStdio,
		UploadDirectory: currentDir,
		Version:         "1.0.0",
		ServerName:      "doc-intake",
		LogLevel:        DefaultLogLevel,
		AllowedTypes:    intake.DefaultAllowedTypes(),
		MaxFileSizeMB:   intake.DefaultMaxFileSizeMB,
		MaxFiles:        intake.DefaultMaxSlots,
		VerifierBackend: DefaultVerifierBackend,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.UploadDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.UploadDirectory); err == nil {
			cfg.UploadDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

var flagKeys = []string{
	"mode", "dir", "loglevel", "allowed-types", "max-size", "max-files",
	"file-size-error-text", "max-files-error-text", "options", "blacklist1", "blacklist2",
	"selected", "employment-status", "verifier-backend",
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("dir", cfg.UploadDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("allowed-types", cfg.AllowedTypes)
	viper.SetDefault("max-size", cfg.MaxFileSizeMB)
	viper.SetDefault("max-files", cfg.MaxFiles)
	viper.SetDefault("verifier-backend", cfg.VerifierBackend)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O")
	pflag.String("dir", cfg.UploadDirectory, "Directory upload candidates are read from")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.StringSlice("allowed-types", cfg.AllowedTypes, "Accepted MIME types, comma separated")
	pflag.Float64("max-size", cfg.MaxFileSizeMB, "Maximum file size in MB")
	pflag.Int("max-files", cfg.MaxFiles, "Maximum number of files when no requirement is selected")
	pflag.String("file-size-error-text", cfg.FileSizeErrorText, "Message shown when a file is too large")
	pflag.String("max-files-error-text", cfg.MaxFilesErrorText, "Message shown when too many files are selected")
	pflag.String("options", cfg.Options, "Requirement options as key,label,limit triples")
	pflag.String("blacklist1", cfg.Blacklist1, "Requirement key to hide")
	pflag.String("blacklist2", cfg.Blacklist2, "Second requirement key to hide")
	pflag.String("selected", cfg.Selected, "Requirement key preselected at startup")
	pflag.String("employment-status", cfg.EmploymentStatus, "Derive the options from an employment status")
	pflag.String("verifier-backend", cfg.VerifierBackend, "PDF library for offline verification (pdfcpu, ledongthuc, auto)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range flagKeys {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nDoc Intake - A Model Context Protocol server for KYC document uploads\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                          "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/uploads --max-files=5     "+
			"# custom directory and slot limit\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --options=\"payslip,Pay Slip,3,coe,COE,1\" --selected=payslip\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		for _, key := range flagKeys {
			fmt.Fprintf(os.Stderr, "  %s\n", envName(key))
		}
	}
}

func envName(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.UploadDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.AllowedTypes = splitList(viper.GetStringSlice("allowed-types"))
	cfg.MaxFileSizeMB = viper.GetFloat64("max-size")
	cfg.MaxFiles = viper.GetInt("max-files")
	cfg.FileSizeErrorText = viper.GetString("file-size-error-text")
	cfg.MaxFilesErrorText = viper.GetString("max-files-error-text")
	cfg.Options = viper.GetString("options")
	cfg.Blacklist1 = viper.GetString("blacklist1")
	cfg.Blacklist2 = viper.GetString("blacklist2")
	cfg.Selected = viper.GetString("selected")
	cfg.EmploymentStatus = viper.GetString("employment-status")
	cfg.VerifierBackend = viper.GetString("verifier-backend")
}

// splitList flattens comma separated entries; environment values arrive as one element
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.UploadDirectory == "" {
		return errors.New("upload directory cannot be empty")
	}

	if _, err := os.Stat(c.UploadDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.UploadDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create upload directory %s: %w", c.UploadDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access upload directory %s: %w", c.UploadDirectory, err)
	}

	if c.MaxFileSizeMB <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.MaxFiles < 1 {
		return errors.New("maximum file count must be at least 1")
	}

	if len(c.AllowedTypes) == 0 {
		return errors.New("at least one allowed type is required")
	}
	for _, t := range c.AllowedTypes {
		if !strings.Contains(t, "/") {
			return fmt.Errorf("invalid MIME type: %s", t)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	switch c.VerifierBackend {
	case "pdfcpu", "ledongthuc", "auto":
	default:
		return fmt.Errorf("invalid verifier backend: %s (must be one of: pdfcpu, ledongthuc, auto)", c.VerifierBackend)
	}

	if _, err := c.NewSelector(); err != nil {
		return err
	}

	return nil
}

// IntakeConfiguration converts the upload constraints for the intake engine
func (c *Config) IntakeConfiguration() intake.Configuration {
	return intake.Configuration{
		AllowedTypes:      append([]string(nil), c.AllowedTypes...),
		MaxFileSizeMB:     c.MaxFileSizeMB,
		MaxSlots:          c.MaxFiles,
		FileSizeErrorText: c.FileSizeErrorText,
		MaxFilesErrorText: c.MaxFilesErrorText,
	}
}

// Blacklist returns the configured hidden requirement keys
func (c *Config) Blacklist() []string {
	return []string{c.Blacklist1, c.Blacklist2}
}

// NewSelector builds the requirement selector: the options table with the
// blacklist applied, replaced by the employment table when a status is set,
// then the preselection.
func (c *Config) NewSelector() (*requirement.Selector, error) {
	table, err := requirement.ParseOptions(c.Options, c.Blacklist()...)
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	sel := requirement.NewSelector(table, nil, nil, c.Blacklist()...)
	if c.EmploymentStatus != "" {
		if _, err := sel.ApplyEmployment(c.EmploymentStatus); err != nil {
			return nil, fmt.Errorf("invalid employment status: %w", err)
		}
	}

	if c.Selected != "" {
		if _, ok := sel.Select(c.Selected); !ok {
			return nil, fmt.Errorf("selected option %q: %w", c.Selected, requirement.ErrUnknownOption)
		}
	}
	return sel, nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, UploadDirectory: %s, LogLevel: %s, AllowedTypes: %s, "+
		"MaxFileSizeMB: %g, MaxFiles: %d, Selected: %s, VerifierBackend: %s}",
		c.Mode, c.UploadDirectory, c.LogLevel, strings.Join(c.AllowedTypes, ","),
		c.MaxFileSizeMB, c.MaxFiles, c.Selected, c.VerifierBackend)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
