package configs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadTOMLKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.toml")

	partial := struct {
		Defaults struct {
			Provider string `toml:"provider"`
		} `toml:"defaults"`
	}{}
	partial.Defaults.Provider = "postgres"

	if err := SaveTOML(path, partial); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	loaded := DefaultSettings()
	if err := LoadTOML(path, &loaded); err != nil {
		t.Fatalf("LoadTOML failed: %v", err)
	}

	if loaded.Defaults.Provider != "postgres" {
		t.Errorf("Expected provider postgres, got %q", loaded.Defaults.Provider)
	}
	if loaded.Defaults.ConnectionTimeout != 30 {
		t.Errorf("Expected default connection timeout 30, got %d", loaded.Defaults.ConnectionTimeout)
	}
	if loaded.Storage.ConnectionsFile != "connections.json" {
		t.Errorf("Expected default connections file, got %q", loaded.Storage.ConnectionsFile)
	}
}

func TestLoadTOMLNonExistent(t *testing.T) {
	var s Settings
	if err := LoadTOML(filepath.Join(t.TempDir(), "missing.toml"), &s); err == nil {
		t.Fatal("Expected error for missing file, got nil")
	}
}

func TestSaveTOMLCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Data", settingsFileName)

	if err := SaveTOML(path, DefaultSettings()); err != nil {
		t.Fatalf("SaveTOML failed: %v", err)
	}

	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		t.Fatalf("Directory was not created: %v", err)
	}
	if !info.IsDir() {
		t.Fatal("Expected a directory")
	}
}
