package gpg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderAgentConf(t *testing.T) {
	conf := RenderAgentConf(AgentSettings{
		Pinentry:    "/opt/homebrew/bin/pinentry-mac",
		CacheTTL:    600,
		MaxCacheTTL: 7200,
	})

	want := "pinentry-program /opt/homebrew/bin/pinentry-mac\ndefault-cache-ttl 600\nmax-cache-ttl 7200\n"
	if conf != want {
		t.Errorf("RenderAgentConf:\n%s\nwant:\n%s", conf, want)
	}
}

func TestRenderAgentConfOmitsEmptyPinentry(t *testing.T) {
	conf := RenderAgentConf(AgentSettings{CacheTTL: 60, MaxCacheTTL: 120})
	if strings.Contains(conf, "pinentry-program") {
		t.Errorf("empty pinentry should be omitted:\n%s", conf)
	}
}

func TestWriteAgentConf(t *testing.T) {
	home := filepath.Join(t.TempDir(), ".gnupg")

	settings := AgentSettings{Pinentry: "/usr/local/bin/pinentry-mac", CacheTTL: 600, MaxCacheTTL: 7200}
	if err := WriteAgentConf(home, settings); err != nil {
		t.Fatalf("WriteAgentConf: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(home, "gpg-agent.conf"))
	if err != nil {
		t.Fatalf("agent conf not written: %v", err)
	}
	if string(data) != RenderAgentConf(settings) {
		t.Errorf("content mismatch:\n%s", data)
	}

	if !AgentConfExists(home) {
		t.Error("AgentConfExists should report true")
	}
}

func TestAgentConfExistsMissing(t *testing.T) {
	if AgentConfExists(t.TempDir()) {
		t.Error("AgentConfExists should report false for a directory without gpg-agent.conf")
	}
}

func TestAgentConfPresentWithoutPinentryLine(t *testing.T) {
	home := t.TempDir()
	conf := filepath.Join(home, "gpg-agent.conf")
	if err := os.WriteFile(conf, []byte("default-cache-ttl 999\nenable-ssh-support\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	agent := NewAgent(home)
	if !agent.ConfPresent() {
		t.Error("ConfPresent should report true for any existing conf")
	}
	if agent.Configured() {
		t.Error("Configured should require a pinentry-program line")
	}
}

func TestAgentConfAbsent(t *testing.T) {
	agent := NewAgent(t.TempDir())
	if agent.ConfPresent() {
		t.Error("ConfPresent should report false when the file is missing")
	}
	if agent.Configured() {
		t.Error("Configured should report false when the file is missing")
	}
}
