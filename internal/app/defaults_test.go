package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaults(t *testing.T) {
	t.Run("uses env vars when set", func(t *testing.T) {
		t.Setenv("DESKOS_CONFIG_PATH", "/custom/deskos.toml")
		t.Setenv("DESKOS_HOME", "/custom/deskos")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		if defaults["config_path"] != "/custom/deskos.toml" {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], "/custom/deskos.toml")
		}
		if defaults["base_dir"] != "/custom/deskos" {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], "/custom/deskos")
		}
		if defaults["log_dir"] != "/custom/deskos/log" {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], "/custom/deskos/log")
		}
	})

	t.Run("falls back to home dir defaults", func(t *testing.T) {
		t.Setenv("DESKOS_CONFIG_PATH", "")
		t.Setenv("DESKOS_HOME", "")

		defaults, err := GetDefaults()
		if err != nil {
			t.Fatalf("GetDefaults() error = %v", err)
		}

		homeDir, _ := os.UserHomeDir()

		wantConfig := filepath.Join(homeDir, ".config", "deskos.toml")
		if defaults["config_path"] != wantConfig {
			t.Errorf("config_path = %q, want %q", defaults["config_path"], wantConfig)
		}

		wantBase := filepath.Join(homeDir, ".local", "share", "deskos")
		if defaults["base_dir"] != wantBase {
			t.Errorf("base_dir = %q, want %q", defaults["base_dir"], wantBase)
		}

		wantLog := filepath.Join(wantBase, "log")
		if defaults["log_dir"] != wantLog {
			t.Errorf("log_dir = %q, want %q", defaults["log_dir"], wantLog)
		}
	})
}
