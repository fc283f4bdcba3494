package gpg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// AgentSettings are the three gpg-agent.conf keys this tool manages.
type AgentSettings struct {
	Pinentry    string
	CacheTTL    int
	MaxCacheTTL int
}

// agentConfName is the agent configuration file inside the keyring directory.
const agentConfName = "gpg-agent.conf"

// RenderAgentConf renders the agent configuration as plain key-value lines.
func RenderAgentConf(s AgentSettings) string {
	var b strings.Builder
	if s.Pinentry != "" {
		fmt.Fprintf(&b, "pinentry-program %s\n", s.Pinentry)
	}
	fmt.Fprintf(&b, "default-cache-ttl %d\n", s.CacheTTL)
	fmt.Fprintf(&b, "max-cache-ttl %d\n", s.MaxCacheTTL)
	return b.String()
}

// WriteAgentConf writes gpg-agent.conf inside the given keyring directory,
// creating the directory if necessary.
func WriteAgentConf(gnupgHome string, s AgentSettings) error {
	if err := os.MkdirAll(gnupgHome, 0o700); err != nil {
		return fmt.Errorf("failed to create keyring directory: %w", err)
	}
	path := filepath.Join(gnupgHome, agentConfName)
	if err := os.WriteFile(path, []byte(RenderAgentConf(s)), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", agentConfName, err)
	}
	return nil
}

// AgentConfExists reports whether the keyring directory has an agent
// configuration file with a pinentry-program line. The consistency check
// uses this to surface agent-not-configured.
func AgentConfExists(gnupgHome string) bool {
	data, err := os.ReadFile(filepath.Join(gnupgHome, agentConfName))
	if err != nil {
		return false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "pinentry-program") {
			return true
		}
	}
	return false
}

// ReloadAgent asks a running gpg-agent to shut down so the next operation
// picks up the new configuration. A missing or idle agent is not an error.
func ReloadAgent() error {
	_, err := execRunner{program: "gpgconf"}.Output(nil, "--kill", "gpg-agent")
	return err
}

// Agent manages the gpg-agent configuration of one keyring directory.
type Agent struct {
	Home string
}

// NewAgent returns an Agent bound to the given keyring directory.
func NewAgent(home string) Agent {
	return Agent{Home: home}
}

// ConfPresent reports whether gpg-agent.conf exists at all, whatever its
// contents. The file is user-owned and may carry unmanaged settings, so
// its mere presence must block rewrites.
func (a Agent) ConfPresent() bool {
	_, err := os.Stat(filepath.Join(a.Home, agentConfName))
	return err == nil
}

// Configured reports whether the conf carries a pinentry-program line.
func (a Agent) Configured() bool {
	return AgentConfExists(a.Home)
}

// WriteConf writes the managed agent configuration.
func (a Agent) WriteConf(s AgentSettings) error {
	return WriteAgentConf(a.Home, s)
}

// Reload restarts a running gpg-agent.
func (a Agent) Reload() error {
	return ReloadAgent()
}

// DefaultGnupgHome returns the keyring directory, honoring GNUPGHOME.
func DefaultGnupgHome() string {
	if env := os.Getenv("GNUPGHOME"); env != "" {
		return env
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gnupg"
	}
	return filepath.Join(home, ".gnupg")
}
