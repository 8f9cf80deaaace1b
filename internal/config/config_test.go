package config_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"deskos/internal/config"
)

func TestNewConfig(t *testing.T) {
	cfg := config.NewConfig("/home/user/.local/share/deskos")

	if cfg.Store.Type != "sqlite" {
		t.Errorf("default store type = %q, want sqlite", cfg.Store.Type)
	}
	if cfg.Store.DataDir != filepath.Join(cfg.BaseDir, "data") {
		t.Errorf("data dir = %q, want under base dir", cfg.Store.DataDir)
	}
	if cfg.Encryption.Enabled() {
		t.Error("encryption should default to disabled")
	}
	if cfg.Encryption.PublicKeyPath == "" || cfg.Encryption.PrivateKeyPath == "" {
		t.Error("key paths should be preset for `keys init`")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *config.Config {
		return config.NewConfig("/tmp/deskos")
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*config.Config) {}, wantErr: false},
		{
			name:    "missing base dir",
			mutate:  func(c *config.Config) { c.BaseDir = "" },
			wantErr: true,
		},
		{
			name:    "unknown store type",
			mutate:  func(c *config.Config) { c.Store.Type = "redis" },
			wantErr: true,
		},
		{
			name: "filesystem store without root",
			mutate: func(c *config.Config) {
				c.Store = config.StoreConfig{Type: "filesystem"}
			},
			wantErr: true,
		},
		{
			name: "filesystem store with root",
			mutate: func(c *config.Config) {
				c.Store = config.StoreConfig{Type: "filesystem", Root: "/tmp/blobs"}
			},
			wantErr: false,
		},
		{
			name: "sqlite store without data dir",
			mutate: func(c *config.Config) {
				c.Store = config.StoreConfig{Type: "sqlite"}
			},
			wantErr: true,
		},
		{
			name: "s3 store without bucket",
			mutate: func(c *config.Config) {
				c.Store = config.StoreConfig{Type: "s3", S3Region: "us-east-1"}
			},
			wantErr: true,
		},
		{
			name: "s3 store without region",
			mutate: func(c *config.Config) {
				c.Store = config.StoreConfig{Type: "s3", S3Bucket: "bucket"}
			},
			wantErr: true,
		},
		{
			name: "s3 store complete",
			mutate: func(c *config.Config) {
				c.Store = config.StoreConfig{Type: "s3", S3Bucket: "bucket", S3Region: "us-east-1"}
			},
			wantErr: false,
		},
		{
			name: "age encryption without key paths",
			mutate: func(c *config.Config) {
				c.Encryption = config.EncryptionConfig{Type: "age"}
			},
			wantErr: true,
		},
		{
			name:    "unknown encryption type",
			mutate:  func(c *config.Config) { c.Encryption.Type = "rot13" },
			wantErr: true,
		},
		{
			name:    "memory store needs nothing else",
			mutate:  func(c *config.Config) { c.Store = config.StoreConfig{Type: "memory"} },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestManager_ReadWrite(t *testing.T) {
	original := config.NewConfig("/srv/deskos")
	original.Store = config.StoreConfig{
		Type:     "s3",
		S3Bucket: "deskos-state",
		S3Prefix: "prod",
		S3Region: "eu-west-1",
	}
	original.Encryption.Type = "age"

	m := &config.Manager{}
	var buf bytes.Buffer
	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	decoded, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if decoded.BaseDir != original.BaseDir {
		t.Errorf("base dir = %q, want %q", decoded.BaseDir, original.BaseDir)
	}
	if decoded.Store != original.Store {
		t.Errorf("store = %+v, want %+v", decoded.Store, original.Store)
	}
	if decoded.Encryption != original.Encryption {
		t.Errorf("encryption = %+v, want %+v", decoded.Encryption, original.Encryption)
	}
}

func TestInit(t *testing.T) {
	t.Run("writes a new config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "conf", "deskos.toml")
		cfg := config.NewConfig("/tmp/deskos")

		if err := config.Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		loaded, err := config.ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if loaded.BaseDir != cfg.BaseDir {
			t.Errorf("base dir = %q, want %q", loaded.BaseDir, cfg.BaseDir)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "deskos.toml")
		cfg := config.NewConfig("/tmp/deskos")

		if err := config.Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if err := config.Init(path, cfg); err == nil {
			t.Error("Init() should fail when the file already exists")
		}
	})

	t.Run("missing file errors", func(t *testing.T) {
		if _, err := config.ReadFromFile(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("ReadFromFile() expected error for missing file")
		}
	})
}
