// Package github registers GPG public keys with a GitHub account through the
// gh CLI, so the platform can mark commits as verified.
package github

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp/armor"

	"github.com/commitsign/commitsign/pkg/commitsign/gpg"
	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

// Runner executes the gh binary. Tests substitute a fake.
type Runner interface {
	Output(stdin io.Reader, args ...string) ([]byte, error)
}

type execRunner struct {
	program string
}

func (r execRunner) Output(stdin io.Reader, args ...string) ([]byte, error) {
	cmd := exec.Command(r.program, args...)
	cmd.Stdin = stdin

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return stdout.Bytes(), fmt.Errorf("%s: %s", r.program, msg)
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w", r.program, err)
	}
	return stdout.Bytes(), nil
}

// Client drives the gh CLI.
type Client struct {
	run Runner
}

// NewClient returns a Client driving the given gh program. An empty program
// resolves "gh" from PATH.
func NewClient(program string) *Client {
	if program == "" {
		program = "gh"
	}
	return &Client{run: execRunner{program: program}}
}

// NewClientWithRunner returns a Client using a custom Runner. Used by tests.
func NewClientWithRunner(run Runner) *Client {
	return &Client{run: run}
}

// Authenticated verifies gh has valid credentials.
func (c *Client) Authenticated() error {
	if _, err := c.run.Output(nil, "auth", "status"); err != nil {
		return output.NewError(output.CodeSourceNotAuthenticated, "gh is not authenticated").
			WithRemediation("run 'gh auth login' and retry, or disable sync.github in the config").
			WithCause(err)
	}
	return nil
}

// registeredKey is the slice of the GitHub GPG key resource this tool reads.
type registeredKey struct {
	KeyID string `json:"key_id"`
}

// Upload registers an armored public key with the account's GPG key registry.
// A key whose id is already registered is a no-op success.
func (c *Client) Upload(armored string) error {
	info, err := validateArmored(armored)
	if err != nil {
		return err
	}

	present, err := c.hasKey(info.Fingerprint)
	if err != nil {
		return err
	}
	if present {
		return nil
	}

	_, err = c.run.Output(nil, "api", "user/gpg_keys", "-f", "armored_public_key="+armored)
	if err != nil {
		return output.NewError(output.CodeUploadFailed, "failed to upload key to GitHub").
			WithRemediation("check 'gh auth status' and that the token has the write:gpg_key scope").
			WithCause(err)
	}
	return nil
}

// hasKey reports whether a key with the fingerprint's short id is already
// registered on the account.
func (c *Client) hasKey(fingerprint string) (bool, error) {
	out, err := c.run.Output(nil, "api", "user/gpg_keys")
	if err != nil {
		return false, output.NewError(output.CodeSourceUnavailable, "failed to list GitHub GPG keys").WithCause(err)
	}

	var keys []registeredKey
	if err := json.Unmarshal(out, &keys); err != nil {
		return false, output.NewError(output.CodeSourceUnavailable, "unexpected GitHub key listing").WithCause(err)
	}

	shortID := fingerprint
	if len(shortID) > 16 {
		shortID = shortID[len(shortID)-16:]
	}
	for _, key := range keys {
		if strings.EqualFold(key.KeyID, shortID) {
			return true, nil
		}
	}
	return false, nil
}

// validateArmored checks that the input is a well-formed armored public key
// block before it goes anywhere near the network.
func validateArmored(armoredKey string) (*gpg.ArmoredKeyInfo, error) {
	block, err := armor.Decode(strings.NewReader(armoredKey))
	if err != nil {
		return nil, output.NewError(output.CodeInvalidInput, "not an armored PGP key block").WithCause(err)
	}
	if block.Type != "PGP PUBLIC KEY BLOCK" {
		return nil, output.NewErrorf(output.CodeInvalidInput, "expected a public key block, got %q", block.Type)
	}

	info, err := gpg.InspectArmored(armoredKey)
	if err != nil {
		return nil, output.NewError(output.CodeInvalidInput, "failed to parse public key").WithCause(err)
	}
	return info, nil
}
