package gitcfg

// Git configuration keys this tool manages.
const (
	keySigningKey = "user.signingkey"
	keyGPGProgram = "gpg.program"
	keyCommitSign = "commit.gpgsign"
)

// SSH signing settings conflict with GPG signing and are removed on every
// apply, so the two signing methods stay mutually exclusive.
var conflictingKeys = []string{
	"gpg.format",
	"gpg.ssh.program",
	"gpg.ssh.allowedSignersFile",
}

// SigningConfiguration is the desired Git signing state.
type SigningConfiguration struct {
	SigningKey string // short key id
	GPGProgram string // path to the gpg executable
	CommitSign bool
}

// Delta reports what an Apply actually changed.
type Delta struct {
	Written           []string // keys written because they differed
	AlreadyConfigured []string // keys left untouched
	RemovedConflicts  []string // alternate-signing keys that were unset
}

// Changed reports whether the apply performed any write.
func (d Delta) Changed() bool {
	return len(d.Written) > 0 || len(d.RemovedConflicts) > 0
}

// Signing reads the current signing configuration.
func (c *Client) Signing() SigningConfiguration {
	return SigningConfiguration{
		SigningKey: c.Get(keySigningKey),
		GPGProgram: c.Get(keyGPGProgram),
		CommitSign: c.Get(keyCommitSign) == "true",
	}
}

// Apply reconciles the current signing configuration toward the desired one,
// writing only fields that differ. Each write is independently idempotent:
// re-running with identical desired state performs zero writes. Conflicting
// alternate-signing-method settings are always removed first, whether or not
// the GPG settings themselves change.
func (c *Client) Apply(desired SigningConfiguration) (Delta, error) {
	var delta Delta

	for _, key := range conflictingKeys {
		if c.Get(key) == "" {
			continue
		}
		if err := c.Unset(key); err != nil {
			return delta, err
		}
		delta.RemovedConflicts = append(delta.RemovedConflicts, key)
	}

	current := c.Signing()

	if current.SigningKey != desired.SigningKey {
		if err := c.Set(keySigningKey, desired.SigningKey); err != nil {
			return delta, err
		}
		delta.Written = append(delta.Written, keySigningKey)
	} else {
		delta.AlreadyConfigured = append(delta.AlreadyConfigured, keySigningKey)
	}

	if desired.GPGProgram != "" {
		if current.GPGProgram != desired.GPGProgram {
			if err := c.Set(keyGPGProgram, desired.GPGProgram); err != nil {
				return delta, err
			}
			delta.Written = append(delta.Written, keyGPGProgram)
		} else {
			delta.AlreadyConfigured = append(delta.AlreadyConfigured, keyGPGProgram)
		}
	}

	desiredSign := "false"
	if desired.CommitSign {
		desiredSign = "true"
	}
	if currentSign := c.Get(keyCommitSign); currentSign != desiredSign {
		if err := c.Set(keyCommitSign, desiredSign); err != nil {
			return delta, err
		}
		delta.Written = append(delta.Written, keyCommitSign)
	} else {
		delta.AlreadyConfigured = append(delta.AlreadyConfigured, keyCommitSign)
	}

	return delta, nil
}

// UnsetSigning removes the three managed signing keys. Rollback uses this to
// return Git configuration to its pre-run state.
func (c *Client) UnsetSigning() error {
	for _, key := range []string{keySigningKey, keyCommitSign, keyGPGProgram} {
		if err := c.Unset(key); err != nil {
			return err
		}
	}
	return nil
}
