package xdg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewPaths(t *testing.T) {
	// Save current env vars
	origConfigHome := os.Getenv("XDG_CONFIG_HOME")
	origDataHome := os.Getenv("XDG_DATA_HOME")
	defer func() {
		_ = os.Setenv("XDG_CONFIG_HOME", origConfigHome)
		_ = os.Setenv("XDG_DATA_HOME", origDataHome)
	}()

	t.Run("defaults", func(t *testing.T) {
		_ = os.Unsetenv("XDG_CONFIG_HOME")
		_ = os.Unsetenv("XDG_DATA_HOME")

		paths, err := NewPaths()
		if err != nil {
			t.Fatalf("NewPaths failed: %v", err)
		}

		homeDir, err := os.UserHomeDir()
		if err != nil {
			t.Fatalf("failed to get home dir: %v", err)
		}

		expectedConfig := filepath.Join(homeDir, ".config")
		expectedData := filepath.Join(homeDir, ".local", "share")

		if paths.ConfigHome != expectedConfig {
			t.Errorf("expected ConfigHome %s, got %s", expectedConfig, paths.ConfigHome)
		}
		if paths.DataHome != expectedData {
			t.Errorf("expected DataHome %s, got %s", expectedData, paths.DataHome)
		}
	})

	t.Run("with env vars", func(t *testing.T) {
		customConfig := "/tmp/custom/config"
		customData := "/tmp/custom/data"
		_ = os.Setenv("XDG_CONFIG_HOME", customConfig)
		_ = os.Setenv("XDG_DATA_HOME", customData)

		paths, err := NewPaths()
		if err != nil {
			t.Fatalf("NewPaths failed: %v", err)
		}

		if paths.ConfigHome != customConfig {
			t.Errorf("expected ConfigHome %s, got %s", customConfig, paths.ConfigHome)
		}
		if paths.DataHome != customData {
			t.Errorf("expected DataHome %s, got %s", customData, paths.DataHome)
		}
	})
}

func TestConfigPath(t *testing.T) {
	paths := Paths{ConfigHome: "/home/op/.config"}
	got := paths.ConfigPath()
	want := filepath.Join("/home/op/.config", "commitsign", "config")
	if got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}
}

func TestEnsureDirs(t *testing.T) {
	tmp := t.TempDir()
	paths := Paths{ConfigHome: tmp}

	if err := paths.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(tmp, "commitsign"))
	if err != nil {
		t.Fatalf("config dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}
	if mode := info.Mode().Perm(); mode != 0o700 {
		t.Errorf("expected mode 0700, got %v", mode)
	}
	if !strings.HasPrefix(paths.ConfigPath(), tmp) {
		t.Errorf("config path %q not under %q", paths.ConfigPath(), tmp)
	}
}
