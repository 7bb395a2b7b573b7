package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Library.MaxInstances != 16 {
		t.Errorf("expected default max_instances 16, got %d", config.Library.MaxInstances)
	}
	if config.Library.TTL() != 30*time.Minute {
		t.Errorf("expected default TTL 30m, got %v", config.Library.TTL())
	}
	if config.Library.SweepInterval() != 5*time.Minute {
		t.Errorf("expected default sweep interval 5m, got %v", config.Library.SweepInterval())
	}
	if config.Server.Port != 8466 {
		t.Errorf("expected default port 8466, got %d", config.Server.Port)
	}
	if config.Matching.Threshold != 70 {
		t.Errorf("expected default threshold 70, got %d", config.Matching.Threshold)
	}
	if config.Storage.BlobDir == "" {
		t.Error("expected a default blob_dir")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `
[library]
max_instances = 4
ttl_minutes = 10

[server]
host = "0.0.0.0"
port = 9000

[matching]
threshold = 85
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if config.Library.MaxInstances != 4 {
			t.Errorf("expected max_instances 4, got %d", config.Library.MaxInstances)
		}
		if config.Server.Host != "0.0.0.0" {
			t.Errorf("expected host 0.0.0.0, got %s", config.Server.Host)
		}
		if config.Matching.Threshold != 85 {
			t.Errorf("expected threshold 85, got %d", config.Matching.Threshold)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("[library\nbroken"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for malformed config file")
		}
	})
}

func TestCreateConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("CreateConfigFile failed: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("created config does not load: %v", err)
	}
	if config.Library.MaxInstances != 16 {
		t.Errorf("expected created config to carry defaults, got max_instances %d", config.Library.MaxInstances)
	}

	if err := CreateConfigFile(path); err == nil {
		t.Error("expected error when config file already exists")
	}
}
