package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/commitsign/commitsign/pkg/commitsign/config"
	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

func TestInitConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	var stdout bytes.Buffer

	if err := InitConfig(path, &stdout); err != nil {
		t.Fatalf("InitConfig() error = %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != config.DefaultConfig() {
		t.Errorf("loaded config = %+v, want defaults", cfg)
	}
	if !strings.Contains(stdout.String(), path) {
		t.Errorf("stdout = %q, want written path echoed", stdout.String())
	}
}

func TestInitConfigRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("gpg_program: /custom/gpg\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := InitConfig(path, new(bytes.Buffer))
	var structured *output.Error
	if !errors.As(err, &structured) || structured.Code != output.CodeConfigInvalid {
		t.Fatalf("InitConfig() error = %v, want code %s", err, output.CodeConfigInvalid)
	}

	data, rerr := os.ReadFile(path)
	if rerr != nil {
		t.Fatal(rerr)
	}
	if string(data) != "gpg_program: /custom/gpg\n" {
		t.Errorf("existing config was rewritten: %q", data)
	}
}
