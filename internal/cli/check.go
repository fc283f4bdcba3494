package cli

import (
	"fmt"

	"github.com/commitsign/commitsign/pkg/commitsign/gpg"
)

// Issue identifiers reported by the consistency check.
const (
	IssueNoSecretKeys       = "no-secret-keys"
	IssueNoSigningKey       = "no-signing-key-configured"
	IssueKeyMissing         = "signing-key-missing-from-keyring"
	IssueEmailMismatch      = "signing-key-email-mismatch"
	IssueAgentNotConfigured = "agent-not-configured"
	IssueCommitSigningOff   = "commit-signing-disabled"
)

// Issue is a single finding from the consistency check.
type Issue struct {
	Code    string
	Message string
}

// Checker runs the read-only consistency diagnostic over the keyring,
// git configuration and agent configuration. The setup is consistent
// iff Check returns an empty issue set.
type Checker struct {
	Keyring     gpg.Client
	Git         GitConfig
	AgentExists func() bool
}

// Check inspects the current state and reports every inconsistency.
// Each condition is guarded by its prerequisites so a single broken
// condition surfaces exactly one issue.
func (c *Checker) Check() []Issue {
	var issues []Issue

	keys, err := c.Keyring.ListSecretKeys("")
	if err != nil {
		keys = nil
	}
	if len(keys) == 0 {
		issues = append(issues, Issue{
			Code:    IssueNoSecretKeys,
			Message: "no secret keys in the keyring",
		})
	}

	signing := c.Git.Signing()
	identity := c.Git.Identity()

	switch {
	case signing.SigningKey == "":
		issues = append(issues, Issue{
			Code:    IssueNoSigningKey,
			Message: "user.signingkey is not set in git config",
		})
	case len(keys) > 0:
		record := findKey(keys, signing.SigningKey)
		if record == nil {
			issues = append(issues, Issue{
				Code:    IssueKeyMissing,
				Message: fmt.Sprintf("configured signing key %s has no secret material in the keyring", signing.SigningKey),
			})
		} else if identity.Email != "" && !record.MatchesEmail(identity.Email) {
			issues = append(issues, Issue{
				Code:    IssueEmailMismatch,
				Message: fmt.Sprintf("signing key %s carries no UID matching %s", record.ShortID(), identity.Email),
			})
		}
	}

	if !c.AgentExists() {
		issues = append(issues, Issue{
			Code:    IssueAgentNotConfigured,
			Message: "gpg-agent.conf is missing",
		})
	}

	if !signing.CommitSign {
		issues = append(issues, Issue{
			Code:    IssueCommitSigningOff,
			Message: "commit.gpgsign is not enabled",
		})
	}

	return issues
}

// Passes reports whether the current state is fully consistent.
func (c *Checker) Passes() bool {
	return len(c.Check()) == 0
}

// findKey matches a configured signing key value, which may be a full
// fingerprint or a short id, against the listed records.
func findKey(keys []gpg.KeyRecord, configured string) *gpg.KeyRecord {
	norm, err := gpg.NormalizeFingerprint(configured)
	if err != nil {
		return nil
	}
	for i := range keys {
		if norm.Short {
			if keys[i].ShortID() == norm.Value {
				return &keys[i]
			}
			continue
		}
		if keys[i].Fingerprint == norm.Value {
			return &keys[i]
		}
	}
	return nil
}
