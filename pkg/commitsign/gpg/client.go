package gpg

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

// Client defines the keyring operations the rest of the tool depends on.
type Client interface {
	ListSecretKeys(emailFilter string) ([]KeyRecord, error)
	NewestKeyForEmail(email string) (*KeyRecord, error)
	KeyByFingerprint(fingerprint string) (*KeyRecord, error)
	HasSecretKey(fingerprint string) bool
	Exists(fingerprintOrShortID string) bool
	ShortIDOf(fingerprint string) (string, bool)
	Import(material io.Reader) error
	ExportPublicArmored(fingerprint string) (string, error)
	ExportSecretArmored(fingerprint string) (string, error)
	Generate(name, email string, protectWithPassphrase bool) (*KeyRecord, error)
}

// Runner executes an external command and returns its stdout. It exists so
// tests can substitute a fake for the real gpg binary.
type Runner interface {
	Output(stdin io.Reader, args ...string) ([]byte, error)
}

// execRunner runs a fixed program via os/exec.
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

// ExecClient is the Client implementation backed by the gpg binary.
type ExecClient struct {
	run Runner
}

// NewClient returns a Client driving the given gpg program. An empty program
// resolves "gpg" from PATH.
func NewClient(program string) *ExecClient {
	if program == "" {
		program = "gpg"
	}
	return &ExecClient{run: execRunner{program: program}}
}

// NewClientWithRunner returns a Client using a custom Runner. Used by tests.
func NewClientWithRunner(run Runner) *ExecClient {
	return &ExecClient{run: run}
}

// ListSecretKeys returns all keys with secret material, optionally filtered
// to those whose UIDs contain the given email (case-insensitive substring).
func (c *ExecClient) ListSecretKeys(emailFilter string) ([]KeyRecord, error) {
	out, err := c.run.Output(nil, "--batch", "--with-colons", "--fingerprint", "--list-secret-keys")
	if err != nil {
		// gpg exits nonzero when the keyring holds no secret keys at all;
		// that is an empty result, not a failure.
		if len(out) == 0 {
			return nil, nil
		}
		return nil, output.NewError(output.CodeGPGError, "failed to list secret keys").WithCause(err)
	}

	records := parseKeyListing(string(out), true)
	if emailFilter == "" {
		return records, nil
	}

	var filtered []KeyRecord
	for _, rec := range records {
		if rec.MatchesEmail(emailFilter) {
			filtered = append(filtered, rec)
		}
	}
	return filtered, nil
}

// NewestKeyForEmail returns the key with the maximum creation timestamp among
// those whose UIDs match the email, or nil when none match. A tie on the
// creation timestamp is resolved in favor of the first key listed; which key
// that is is unspecified.
func (c *ExecClient) NewestKeyForEmail(email string) (*KeyRecord, error) {
	records, err := c.ListSecretKeys(email)
	if err != nil {
		return nil, err
	}

	var newest *KeyRecord
	for i := range records {
		if newest == nil || records[i].CreatedAt > newest.CreatedAt {
			newest = &records[i]
		}
	}
	return newest, nil
}

// KeyByFingerprint returns the secret-key record for a fingerprint, or nil
// when the keyring has no secret material for it.
func (c *ExecClient) KeyByFingerprint(fingerprint string) (*KeyRecord, error) {
	out, err := c.run.Output(nil, "--batch", "--with-colons", "--fingerprint", "--list-secret-keys", fingerprint)
	if err != nil {
		return nil, nil
	}
	records := parseKeyListing(string(out), true)
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// HasSecretKey reports whether secret material is present for the given
// fingerprint or short id.
func (c *ExecClient) HasSecretKey(fingerprint string) bool {
	if fingerprint == "" {
		return false
	}
	out, err := c.run.Output(nil, "--batch", "--with-colons", "--list-secret-keys", fingerprint)
	if err != nil {
		return false
	}
	return len(parseKeyListing(string(out), true)) > 0
}

// Exists reports whether a key (public or secret) is present in the keyring.
func (c *ExecClient) Exists(fingerprintOrShortID string) bool {
	if fingerprintOrShortID == "" {
		return false
	}
	out, err := c.run.Output(nil, "--batch", "--with-colons", "--list-keys", fingerprintOrShortID)
	if err != nil {
		return false
	}
	return len(parseKeyListing(string(out), false)) > 0
}

// ShortIDOf derives the 16-character key id for a fingerprint via keyring
// lookup. The second return is false when the key is not present locally.
func (c *ExecClient) ShortIDOf(fingerprint string) (string, bool) {
	out, err := c.run.Output(nil, "--batch", "--with-colons", "--fingerprint", "--list-keys", fingerprint)
	if err != nil {
		return "", false
	}
	records := parseKeyListing(string(out), false)
	if len(records) == 0 {
		return "", false
	}
	return records[0].ShortID(), true
}

// Import feeds key material (armored or binary) to gpg on stdin. Importing a
// key that is already present succeeds trivially; gpg treats it as a no-op.
func (c *ExecClient) Import(material io.Reader) error {
	if _, err := c.run.Output(material, "--batch", "--import"); err != nil {
		return output.NewError(output.CodeGPGImportFailed, "failed to import key material").
			WithRemediation("check that the input is a valid PGP key block").
			WithCause(err)
	}
	return nil
}

// ExportPublicArmored exports the armored public key for a fingerprint.
func (c *ExecClient) ExportPublicArmored(fingerprint string) (string, error) {
	out, err := c.run.Output(nil, "--batch", "--armor", "--export", fingerprint)
	if err != nil {
		return "", output.NewErrorf(output.CodeGPGExportFailed, "failed to export public key %s", fingerprint).WithCause(err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return "", output.NewErrorf(output.CodeGPGKeyNotFound, "no public key found for %s", fingerprint)
	}
	return string(out), nil
}

// ExportSecretArmored exports the armored secret key for a fingerprint.
// The passphrase prompt, if any, is handled by gpg-agent.
func (c *ExecClient) ExportSecretArmored(fingerprint string) (string, error) {
	out, err := c.run.Output(nil, "--armor", "--export-secret-keys", fingerprint)
	if err != nil {
		return "", output.NewErrorf(output.CodeGPGExportFailed, "failed to export secret key %s", fingerprint).WithCause(err)
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return "", output.NewErrorf(output.CodeGPGNoSecretKey, "no secret key found for %s", fingerprint)
	}
	return string(out), nil
}
