package configs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// HomeEnv overrides the base directory that holds the Data directory.
	HomeEnv = "SQLCONN_HOME"

	// DataDirName is the dedicated subdirectory for everything sqlconn writes.
	DataDirName = "Data"

	settingsFileName = "settings.toml"
)

// Settings is the content of settings.toml.
type Settings struct {
	Storage  StorageSettings `toml:"storage"`
	Defaults ProfileDefaults `toml:"defaults"`
	Logging  LogSettings     `toml:"logging"`
}

type StorageSettings struct {
	ConnectionsFile string `toml:"connections_file"`
	AuditFile       string `toml:"audit_file"`
	ReportsDir      string `toml:"reports_dir"`
}

// ProfileDefaults pre-fills new connection profiles.
type ProfileDefaults struct {
	Provider               string `toml:"provider"`
	ConnectionTimeout      int    `toml:"connection_timeout"`
	CommandTimeout         int    `toml:"command_timeout"`
	TrustServerCertificate bool   `toml:"trust_server_certificate"`
}

type LogSettings struct {
	// File enables the rotating log file when non-empty.
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Paths holds absolute locations derived from the home directory and settings.
type Paths struct {
	Home            string
	DataDir         string
	SettingsFile    string
	ConnectionsFile string
	AuditFile       string
	ReportsDir      string
	LogFile         string
}

// DefaultSettings returns the settings used when no settings.toml exists.
func DefaultSettings() Settings {
	return Settings{
		Storage: StorageSettings{
			ConnectionsFile: "connections.json",
			AuditFile:       "audit.jsonl",
			ReportsDir:      filepath.Join("..", "Reports"),
		},
		Defaults: ProfileDefaults{
			Provider:               "sqlserver",
			ConnectionTimeout:      30,
			CommandTimeout:         30,
			TrustServerCertificate: true,
		},
		Logging: LogSettings{
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
	}
}

// ResolveHome returns SQLCONN_HOME when set, else the working directory.
func ResolveHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv(HomeEnv)); home != "" {
		return filepath.Abs(home)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// SettingsPath returns the settings file location for a home directory.
func SettingsPath(home string) string {
	return filepath.Join(home, DataDirName, settingsFileName)
}

// LoadSettings reads settings.toml below home, falling back to defaults for
// a missing file and for any key the file leaves out.
func LoadSettings(home string) (Settings, error) {
	settings := DefaultSettings()
	path := SettingsPath(home)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return settings, nil
	}

	if err := LoadTOML(path, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to load settings from %s: %w", path, err)
	}
	if err := settings.Validate(); err != nil {
		return DefaultSettings(), fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return settings, nil
}

// SaveSettings writes settings.toml below home.
func SaveSettings(home string, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := SaveTOML(SettingsPath(home), settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Validate rejects settings that would leave sqlconn without a data file.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.Storage.ConnectionsFile) == "" {
		return fmt.Errorf("storage.connections_file must not be empty")
	}
	if s.Defaults.ConnectionTimeout < 0 || s.Defaults.CommandTimeout < 0 {
		return fmt.Errorf("default timeouts must not be negative")
	}
	switch s.Defaults.Provider {
	case "", "sqlserver", "postgres":
	default:
		return fmt.Errorf("defaults.provider must be sqlserver or postgres, got %q", s.Defaults.Provider)
	}
	return nil
}

// Paths resolves every location relative to home/Data.
func (s Settings) Paths(home string) Paths {
	dataDir := filepath.Join(home, DataDirName)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Clean(filepath.Join(dataDir, p))
	}

	return Paths{
		Home:            home,
		DataDir:         dataDir,
		SettingsFile:    SettingsPath(home),
		ConnectionsFile: resolve(s.Storage.ConnectionsFile),
		AuditFile:       resolve(s.Storage.AuditFile),
		ReportsDir:      resolve(s.Storage.ReportsDir),
		LogFile:         resolve(s.Logging.File),
	}
}
