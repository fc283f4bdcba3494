// Package gitcfg reads and writes Git global configuration through the git
// binary. Git itself is the store of record; this package never caches.
package gitcfg

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

// Runner executes git with the given arguments. Tests substitute a fake.
type Runner interface {
	Output(args ...string) (string, error)
}

type execRunner struct {
	program string
}

func (r execRunner) Output(args ...string) (string, error) {
	cmd := exec.Command(r.program, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return stdout.String(), fmt.Errorf("%s: %s", r.program, msg)
		}
		return stdout.String(), fmt.Errorf("%s: %w", r.program, err)
	}
	return stdout.String(), nil
}

// Client drives git config in the global scope.
type Client struct {
	run Runner
}

// NewClient returns a Client driving the given git program. An empty program
// resolves "git" from PATH.
func NewClient(program string) *Client {
	if program == "" {
		program = "git"
	}
	return &Client{run: execRunner{program: program}}
}

// NewClientWithRunner returns a Client using a custom Runner. Used by tests.
func NewClientWithRunner(run Runner) *Client {
	return &Client{run: run}
}

// Get reads a global configuration key. A missing key reads as empty; git's
// nonzero exit for absent keys is not an error here.
func (c *Client) Get(key string) string {
	out, err := c.run.Output("config", "--global", "--get", key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// Set writes a global configuration key. Write failures are fatal for the
// run, so they come back as ConfigError.
func (c *Client) Set(key, value string) error {
	if _, err := c.run.Output("config", "--global", key, value); err != nil {
		return output.NewErrorf(output.CodeGitConfigError, "failed to set %s", key).
			WithRemediation("check that the global git configuration file is writable").
			WithCause(err)
	}
	return nil
}

// Unset removes a global configuration key. Unsetting an absent key is a
// no-op, not an error.
func (c *Client) Unset(key string) error {
	_, err := c.run.Output("config", "--global", "--unset", key)
	if err != nil && c.Get(key) != "" {
		return output.NewErrorf(output.CodeGitConfigError, "failed to unset %s", key).WithCause(err)
	}
	return nil
}

// Identity is the committer identity from Git global configuration.
type Identity struct {
	Name  string
	Email string
}

// Complete reports whether both identity fields are set.
func (i Identity) Complete() bool {
	return i.Name != "" && i.Email != ""
}

// Identity reads user.name and user.email.
func (c *Client) Identity() Identity {
	return Identity{
		Name:  c.Get("user.name"),
		Email: c.Get("user.email"),
	}
}

// SetIdentity persists user.name and user.email.
func (c *Client) SetIdentity(id Identity) error {
	if id.Name != "" {
		if err := c.Set("user.name", id.Name); err != nil {
			return err
		}
	}
	if id.Email != "" {
		if err := c.Set("user.email", id.Email); err != nil {
			return err
		}
	}
	return nil
}
