package gpg

import (
	"fmt"
	"strings"
	"time"

	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

// Generation parameters. The tool manages a single signing key shape;
// anything fancier belongs in gpg itself.
const (
	generateKeyType   = "RSA"
	generateKeyLength = 4096
	generateExpiry    = "2y"
)

// settleDelay is how long to wait before falling back to a newest-key-by-email
// lookup after generation. Creation timestamps have one-second resolution, so
// an immediate lookup can race the freshly written keyring. The delay is a
// mitigation, not a guarantee; the status-fd fingerprint path avoids the
// lookup entirely.
const settleDelay = time.Second

// batchSpec renders the declarative batch input for gpg --generate-key.
func batchSpec(name, email string, protectWithPassphrase bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Key-Type: %s\n", generateKeyType)
	fmt.Fprintf(&b, "Key-Length: %d\n", generateKeyLength)
	fmt.Fprintf(&b, "Subkey-Type: %s\n", generateKeyType)
	fmt.Fprintf(&b, "Subkey-Length: %d\n", generateKeyLength)
	fmt.Fprintf(&b, "Name-Real: %s\n", name)
	fmt.Fprintf(&b, "Name-Email: %s\n", email)
	fmt.Fprintf(&b, "Expire-Date: %s\n", generateExpiry)
	if !protectWithPassphrase {
		b.WriteString("%no-protection\n")
	}
	b.WriteString("%commit\n")
	return b.String()
}

// parseKeyCreated extracts the fingerprint from a KEY_CREATED status line.
// The line has the form "[GNUPG:] KEY_CREATED B <fingerprint>".
func parseKeyCreated(statusOut string) string {
	for _, line := range strings.Split(statusOut, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 4 && fields[0] == "[GNUPG:]" && fields[1] == "KEY_CREATED" {
			return strings.ToUpper(fields[3])
		}
	}
	return ""
}

// Generate creates a new RSA-4096 key pair for the given identity, expiring
// in two years. With protectWithPassphrase the passphrase prompt is left to
// gpg's own pinentry; without it the key is generated unprotected (callers
// must warn about this). The call blocks until gpg finishes, typically a few
// seconds.
//
// The fingerprint is taken from gpg's KEY_CREATED status line when present.
// Only if that line is missing does the adapter fall back to looking up the
// newest key for the email after a short settling delay.
func (c *ExecClient) Generate(name, email string, protectWithPassphrase bool) (*KeyRecord, error) {
	if name == "" || email == "" {
		return nil, output.NewError(output.CodeInvalidInput, "key generation requires both a name and an email")
	}

	args := []string{"--batch", "--status-fd", "1", "--generate-key"}
	if protectWithPassphrase {
		// %no-protection is absent from the batch spec; gpg drives pinentry.
		args = []string{"--status-fd", "1", "--batch", "--pinentry-mode", "ask", "--generate-key"}
	}

	spec := batchSpec(name, email, protectWithPassphrase)
	out, err := c.run.Output(strings.NewReader(spec), args...)
	if err != nil {
		return nil, output.NewError(output.CodeGPGGenerateFailed, "key generation failed").
			WithRemediation("check that gpg is installed and the keyring directory is writable").
			WithCause(err)
	}

	if fpr := parseKeyCreated(string(out)); fpr != "" {
		if rec, err := c.KeyByFingerprint(fpr); err == nil && rec != nil {
			return rec, nil
		}
	}

	// Known limitation: without the status line the new key is identified by
	// creation timestamp, which is ambiguous when two keys land in the same
	// second.
	time.Sleep(settleDelay)
	rec, err := c.NewestKeyForEmail(email)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, output.NewErrorf(output.CodeGPGGenerateFailed,
			"generated key for %s not found in keyring", email)
	}
	return rec, nil
}
