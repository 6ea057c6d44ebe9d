// Package config provides configuration management for BioClick.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// DefaultRemoteEndpoint is the BLAST service used when the config file
// does not override it.
const DefaultRemoteEndpoint = "http://127.0.0.1:5001"

// DefaultResultFilename is the name the remote result artifact is saved
// under (collisions are resolved by the artifact store).
const DefaultResultFilename = "blast_result.xml"

// DefaultUploadLimitBytes mirrors the remote service's 2 MiB request cap;
// oversized inputs are rejected locally before any network activity.
const DefaultUploadLimitBytes = 2 * 1024 * 1024

// Config is the top-level configuration, stored as INI at
// ~/.config/bioclick/config.
//
// INI format:
//
//	[engine]
//	binary_path = /opt/bioclick/engines/blast-engine
//
//	[remote]
//	endpoint = http://127.0.0.1:5001
//	database = nt
//	evalue = 1e-6
//	outfmt = 5
//	result_filename = blast_result.xml
//	output_folder = ~/bioclick/outputs
//
//	[proxy]
//	mode = no-proxy
//
//	[notifications]
//	enabled = true
type Config struct {
	Engine        EngineConfig
	Remote        RemoteConfig
	Proxy         ProxyConfig
	Notifications NotificationConfig
}

// EngineConfig locates the local compute engine binary.
type EngineConfig struct {
	// BinaryPath is the engine executable spawned for local jobs. The
	// engine contract is a single positional argument (the input file),
	// progress on stdout/stderr, and an integer exit status.
	BinaryPath string `ini:"binary_path"`
}

// RemoteConfig describes the remote BLAST service and the fixed request
// options sent with every upload. The options are named and overridable
// here rather than buried as literals in the upload code.
type RemoteConfig struct {
	// Endpoint is the base URL of the remote service; the job is POSTed
	// to <endpoint>/run_blast.
	Endpoint string `ini:"endpoint"`

	// Database is the search database identifier. Default: "nt".
	Database string `ini:"database"`

	// EValue is the significance threshold. Default: "1e-6".
	EValue string `ini:"evalue"`

	// OutputFormat is the BLAST output format code. Default: "5" (XML).
	OutputFormat string `ini:"outfmt"`

	// ResultFilename is the name the result artifact is saved under.
	// Default: "blast_result.xml".
	ResultFilename string `ini:"result_filename"`

	// OutputFolder is where result artifacts land. Default:
	// ~/bioclick/outputs.
	OutputFolder string `ini:"output_folder"`

	// UploadLimitBytes caps the input file size for remote jobs.
	// Default: 2 MiB, matching the service's request limit.
	UploadLimitBytes int64 `ini:"upload_limit_bytes"`
}

// ProxyConfig configures outbound proxy behavior for remote jobs.
type ProxyConfig struct {
	// Mode is one of: no-proxy, system, basic, ntlm. Default: no-proxy.
	Mode string `ini:"mode"`

	Host     string `ini:"host"`
	Port     int    `ini:"port"`
	User     string `ini:"user"`
	Password string `ini:"password"`

	// NoProxy is a comma-separated bypass list of hosts/CIDRs.
	NoProxy string `ini:"no_proxy"`
}

// NotificationConfig contains settings for desktop notifications.
type NotificationConfig struct {
	// Enabled indicates whether notifications are shown. Default: true.
	Enabled bool `ini:"enabled"`

	// ShowComplete shows a notification when a job completes. Default: true.
	ShowComplete bool `ini:"show_complete"`

	// ShowFailed shows a notification when a job fails. Default: true.
	ShowFailed bool `ini:"show_failed"`
}

// Default returns a configuration with documented defaults applied.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		Remote: RemoteConfig{
			Endpoint:         DefaultRemoteEndpoint,
			Database:         "nt",
			EValue:           "1e-6",
			OutputFormat:     "5",
			ResultFilename:   DefaultResultFilename,
			OutputFolder:     filepath.Join(home, "bioclick", "outputs"),
			UploadLimitBytes: DefaultUploadLimitBytes,
		},
		Proxy: ProxyConfig{
			Mode: "no-proxy",
		},
		Notifications: NotificationConfig{
			Enabled:      true,
			ShowComplete: true,
			ShowFailed:   true,
		},
	}
}

// DefaultPath returns the default config file location
// (~/.config/bioclick/config on all platforms).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "bioclick", "config")
	}
	return filepath.Join(home, ".config", "bioclick", "config")
}

// Load reads configuration from path. An empty path selects DefaultPath;
// a missing file yields defaults rather than an error so first runs work
// without setup.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := file.Section("engine").MapTo(&cfg.Engine); err != nil {
		return nil, fmt.Errorf("invalid [engine] section: %w", err)
	}
	if err := file.Section("remote").MapTo(&cfg.Remote); err != nil {
		return nil, fmt.Errorf("invalid [remote] section: %w", err)
	}
	if err := file.Section("proxy").MapTo(&cfg.Proxy); err != nil {
		return nil, fmt.Errorf("invalid [proxy] section: %w", err)
	}
	if err := file.Section("notifications").MapTo(&cfg.Notifications); err != nil {
		return nil, fmt.Errorf("invalid [notifications] section: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path in INI format, creating parent
// directories as needed. An empty path selects DefaultPath.
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file := ini.Empty()
	if err := file.Section("engine").ReflectFrom(&c.Engine); err != nil {
		return fmt.Errorf("failed to encode [engine] section: %w", err)
	}
	if err := file.Section("remote").ReflectFrom(&c.Remote); err != nil {
		return fmt.Errorf("failed to encode [remote] section: %w", err)
	}
	if err := file.Section("proxy").ReflectFrom(&c.Proxy); err != nil {
		return fmt.Errorf("failed to encode [proxy] section: %w", err)
	}
	if err := file.Section("notifications").ReflectFrom(&c.Notifications); err != nil {
		return fmt.Errorf("failed to encode [notifications] section: %w", err)
	}

	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}
