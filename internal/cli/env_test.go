package cli

import (
	"errors"
	"strings"
	"testing"
)

func allToolsPresent(string) (string, error) {
	return "/usr/bin/tool", nil
}

func TestValidatePassesOnDarwin(t *testing.T) {
	v := &Validator{goos: "darwin", arch: "arm64", lookPath: allToolsPresent}
	if err := v.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateRejectsLinux(t *testing.T) {
	v := &Validator{goos: "linux", arch: "amd64", lookPath: allToolsPresent}
	err := v.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}

	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("Validate() = %T, want *EnvironmentError", err)
	}
	if envErr.OS != "linux" {
		t.Errorf("OS = %q, want linux", envErr.OS)
	}
	if len(envErr.Suggestions) == 0 {
		t.Fatal("expected platform suggestions")
	}
	if !strings.Contains(envErr.Suggestions[0], "package manager") {
		t.Errorf("suggestion %q should mention the package manager", envErr.Suggestions[0])
	}
}

func TestValidateRejectsWindowsWithGpg4winHint(t *testing.T) {
	v := &Validator{goos: "windows", arch: "amd64", lookPath: allToolsPresent}
	err := v.Validate()

	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("Validate() = %v, want *EnvironmentError", err)
	}
	if !strings.Contains(envErr.Suggestions[0], "Gpg4win") {
		t.Errorf("suggestion %q should mention Gpg4win", envErr.Suggestions[0])
	}
}

func TestValidateReportsMissingTools(t *testing.T) {
	v := &Validator{
		goos: "darwin",
		arch: "arm64",
		lookPath: func(name string) (string, error) {
			if name == "curl" {
				return "", errors.New("not found")
			}
			return "/usr/bin/" + name, nil
		},
	}
	err := v.Validate()

	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		t.Fatalf("Validate() = %v, want *EnvironmentError", err)
	}
	if len(envErr.Missing) != 1 || envErr.Missing[0] != "curl" {
		t.Errorf("Missing = %v, want [curl]", envErr.Missing)
	}
	if !strings.Contains(err.Error(), "curl") {
		t.Errorf("error %q should name the missing tool", err.Error())
	}
}
