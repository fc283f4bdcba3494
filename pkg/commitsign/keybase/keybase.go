// Package keybase adapts the keybase CLI as an identity source: a remote
// registry of PGP keys tied to the operator's account, from which candidate
// signing keys can be listed, imported, and to which keys can be published.
package keybase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/commitsign/commitsign/pkg/commitsign/gpg"
	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

// Candidate listing retry policy: empty results may be transient (the
// keybase service can answer before its key sync finishes), so the listing
// is retried a few times with a fixed delay. Hard errors and authentication
// failures are never retried.
const (
	listAttempts = 3
	retryDelay   = time.Second
)

// Runner executes the keybase binary. Tests substitute a fake.
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

// Client drives the keybase CLI.
type Client struct {
	run   Runner
	sleep func(time.Duration)
}

// NewClient returns a Client driving the given keybase program. An empty
// program resolves "keybase" from PATH.
func NewClient(program string) *Client {
	if program == "" {
		program = "keybase"
	}
	return &Client{run: execRunner{program: program}, sleep: time.Sleep}
}

// NewClientWithRunner returns a Client with a custom Runner and no retry
// delay. Used by tests.
func NewClientWithRunner(run Runner) *Client {
	return &Client{run: run, sleep: func(time.Duration) {}}
}

// statusPayload is the slice of `keybase status --json` this tool reads.
type statusPayload struct {
	Username string `json:"Username"`
	LoggedIn bool   `json:"LoggedIn"`
}

// Status verifies the keybase service is reachable and logged in.
func (c *Client) Status() error {
	out, err := c.run.Output(nil, "status", "--json")
	if err != nil {
		return output.NewError(output.CodeSourceUnavailable, "keybase is not reachable").
			WithRemediation("install keybase and run 'keybase login', or disable sync.keybase in the config").
			WithCause(err)
	}

	var status statusPayload
	if err := json.Unmarshal(out, &status); err != nil {
		return output.NewError(output.CodeSourceUnavailable, "unexpected keybase status output").WithCause(err)
	}
	if !status.LoggedIn {
		return output.NewError(output.CodeSourceNotAuthenticated, "keybase is installed but not logged in").
			WithRemediation("run 'keybase login' and retry")
	}
	return nil
}

// ListCandidates returns the fingerprints of the account's PGP keys, ordered
// with exact email matches first and the remainder after, de-duplicated
// preserving first occurrence. An empty listing is retried up to three times
// with a one-second delay; authentication failures are returned immediately.
func (c *Client) ListCandidates(email string) ([]string, error) {
	if err := c.Status(); err != nil {
		return nil, err
	}

	var fingerprints []string
	for attempt := 1; attempt <= listAttempts; attempt++ {
		out, err := c.run.Output(nil, "pgp", "list")
		if err != nil {
			return nil, output.NewError(output.CodeSourceUnavailable, "failed to list keybase PGP keys").WithCause(err)
		}

		fingerprints = parsePGPList(string(out))
		if len(fingerprints) > 0 {
			break
		}
		if attempt < listAttempts {
			c.sleep(retryDelay)
		}
	}

	if len(fingerprints) == 0 {
		return nil, nil
	}

	return c.orderByEmail(fingerprints, email), nil
}

// orderByEmail splits candidates into exact-email matches and the rest,
// preserving listing order within each group. Candidates whose key material
// cannot be inspected stay in the fallback group.
func (c *Client) orderByEmail(fingerprints []string, email string) []string {
	var exact, rest []string
	seen := make(map[string]bool)

	for _, fpr := range fingerprints {
		if seen[fpr] {
			continue
		}
		seen[fpr] = true

		armored, err := c.ExportPublic(fpr)
		if err != nil {
			rest = append(rest, fpr)
			continue
		}
		info, err := gpg.InspectArmored(armored)
		if err == nil && info.MatchesEmail(email) {
			exact = append(exact, fpr)
		} else {
			rest = append(rest, fpr)
		}
	}

	return append(exact, rest...)
}

// parsePGPList extracts fingerprints from `keybase pgp list` output. The
// format is human-oriented; only the "PGP Fingerprint:" lines are trusted,
// normalized into canonical form.
func parsePGPList(out string) []string {
	var fingerprints []string
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		if !strings.HasPrefix(lower, "pgp fingerprint:") {
			continue
		}
		value := strings.TrimSpace(trimmed[len("pgp fingerprint:"):])
		norm, err := gpg.NormalizeFingerprint(value)
		if err != nil || norm.Short {
			continue
		}
		fingerprints = append(fingerprints, norm.Value)
	}
	return fingerprints
}

// ExportPublic exports the armored public key for a fingerprint.
func (c *Client) ExportPublic(fingerprint string) (string, error) {
	out, err := c.run.Output(nil, "pgp", "export", "-q", fingerprint)
	if err != nil {
		return "", output.NewErrorf(output.CodeSourceUnavailable, "failed to export key %s from keybase", fingerprint).WithCause(err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return "", output.NewErrorf(output.CodeSourceNoCandidates, "keybase has no key %s", fingerprint)
	}
	return string(out), nil
}

// ExportSecret exports the armored secret key for a fingerprint. Keybase
// prompts for the account passphrase itself when needed.
func (c *Client) ExportSecret(fingerprint string) (string, error) {
	out, err := c.run.Output(nil, "pgp", "export", "--secret", "-q", fingerprint)
	if err != nil {
		return "", output.NewErrorf(output.CodeSourceUnavailable, "failed to export secret key %s from keybase", fingerprint).WithCause(err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return "", output.NewErrorf(output.CodeSourceNoCandidates, "keybase has no secret key %s", fingerprint)
	}
	return string(out), nil
}

// UploadKey publishes an armored public key to the keybase account. A key
// that is already present is a no-op success.
func (c *Client) UploadKey(armored string) error {
	_, err := c.run.Output(strings.NewReader(armored), "pgp", "import")
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already") {
			return nil
		}
		return output.NewError(output.CodeUploadFailed, "failed to upload key to keybase").WithCause(err)
	}
	return nil
}
