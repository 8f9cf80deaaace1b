package app

import (
	"path/filepath"
	"testing"

	"deskos/internal/config"
	"deskos/internal/vfs"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.NewConfig(base)
	cfg.Store = config.StoreConfig{Type: "memory"}
	return cfg
}

func TestNewDeskApp(t *testing.T) {
	t.Run("wires a working app", func(t *testing.T) {
		a, err := NewDeskApp(testConfig(t), "Test", nil)
		if err != nil {
			t.Fatalf("NewDeskApp() error = %v", err)
		}
		defer a.Close()

		if a.Repo() == nil || a.Explorer() == nil || a.Notes() == nil {
			t.Fatal("NewDeskApp() left components unwired")
		}
		if _, ok := a.Repo().FindByPath("/Documents"); !ok {
			t.Error("fresh app should seed the default tree")
		}
		if got := a.Explorer().CurrentPath(); got != "/Documents" {
			t.Errorf("explorer CurrentPath() = %q, want /Documents", got)
		}
		if got := a.LoadWarning(); got != "" {
			t.Errorf("LoadWarning() = %q on a fresh store, want none", got)
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Store.Type = "redis"

		if _, err := NewDeskApp(cfg, "Test", nil); err == nil {
			t.Error("NewDeskApp() expected error for invalid config")
		}
	})

	t.Run("test encryption wraps the store", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Store = config.StoreConfig{Type: "sqlite", DataDir: filepath.Join(cfg.BaseDir, "data")}
		cfg.Encryption.Type = "test"

		a, err := NewDeskApp(cfg, "Test", nil)
		if err != nil {
			t.Fatalf("NewDeskApp() error = %v", err)
		}
		defer a.Close()

		if _, err := a.Repo().CreateItem(vfs.CreateItemOptions{Type: vfs.TypeFile, Name: "a.txt", ParentPath: "/Documents"}); err != nil {
			t.Fatalf("CreateItem() error = %v", err)
		}

		// A second app over the same store decrypts the persisted state.
		b, err := NewDeskApp(cfg, "Test", nil)
		if err != nil {
			t.Fatalf("second NewDeskApp() error = %v", err)
		}
		defer b.Close()

		if _, ok := b.Repo().FindByPath("/Documents/a.txt"); !ok {
			t.Error("persisted item not visible through the encrypted store")
		}
		if got := b.Repo().LoadOutcome(); got != vfs.LoadOK {
			t.Errorf("LoadOutcome() = %v, want %v", got, vfs.LoadOK)
		}
	})

	t.Run("age encryption requires a passphrase source", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Encryption.Type = "age"

		if _, err := NewDeskApp(cfg, "Test", nil); err == nil {
			t.Error("NewDeskApp() expected error when no passphrase source is provided")
		}
	})
}
