package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/commitsign/commitsign/pkg/commitsign/gitcfg"
	"github.com/commitsign/commitsign/pkg/commitsign/gpg"
	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

// Selection is the outcome of key selection: the key the rest of the
// pipeline should wire into git. Fingerprint is empty only on the dry-run
// generation path, where no key exists yet.
type Selection struct {
	Fingerprint string
	Generated   bool
	Imported    bool
}

// Selector picks or creates the signing key according to the run mode.
// Check runs the full consistency diagnostic; reusing the configured key
// is gated on it passing.
type Selector struct {
	Keyring gpg.Client
	Git     GitConfig
	Source  IdentitySource
	Prompt  Prompter
	Out     *output.Handler
	Opts    RunOptions
	Check   func() []Issue
}

// Select resolves a signing key for the configured mode. It returns a
// terminal error when no key can be selected.
func (s *Selector) Select() (*Selection, error) {
	switch s.Opts.Mode() {
	case ModeForceNew:
		return s.generate()
	case ModeAutomatic:
		return s.automatic()
	default:
		return s.interactive()
	}
}

// automatic walks the priority chain without prompting. The first usable
// key wins and later steps are never consulted; in particular a usable
// configured key must not touch the identity source.
func (s *Selector) automatic() (*Selection, error) {
	if rec := s.configuredKey(); rec != nil {
		s.Out.Infof("using configured signing key %s", rec.ShortID())
		return &Selection{Fingerprint: rec.Fingerprint}, nil
	}

	if rec := s.newestLocalKey(); rec != nil {
		s.Out.Infof("using local key %s for %s", rec.ShortID(), s.Git.Identity().Email)
		return &Selection{Fingerprint: rec.Fingerprint}, nil
	}

	if sel := s.importFromSource(); sel != nil {
		return sel, nil
	}

	return nil, output.NewError(output.CodeNoSuitableKey,
		"no suitable signing key found").
		WithRemediation("run with --new to generate one, or import a key into the keyring")
}

// interactive walks the same chain with a confirmation at each step.
// Declining cascades to the next step; generation is offered last.
func (s *Selector) interactive() (*Selection, error) {
	if rec := s.configuredKey(); rec != nil {
		ok, err := s.Prompt.Confirm(fmt.Sprintf("Use configured signing key %s?", rec.ShortID()))
		if err != nil {
			return nil, err
		}
		if ok {
			return &Selection{Fingerprint: rec.Fingerprint}, nil
		}
	}

	if rec := s.newestLocalKey(); rec != nil {
		created := time.Unix(rec.CreatedAt, 0).Format("2006-01-02")
		ok, err := s.Prompt.Confirm(fmt.Sprintf("Use local key %s (%s %d, created %s)?",
			rec.ShortID(), rec.Algorithm, rec.Bits, created))
		if err != nil {
			return nil, err
		}
		if ok {
			return &Selection{Fingerprint: rec.Fingerprint}, nil
		}
	}

	candidates := s.sourceCandidates()
	for _, fpr := range candidates {
		norm, err := gpg.NormalizeFingerprint(fpr)
		if err != nil {
			s.Out.Warnf(output.CodeFingerprintInvalid, "skipping source key %q: %v", fpr, err)
			continue
		}
		if norm.Short {
			s.Out.Warnf(output.CodeFingerprintShort,
				"identity source listed short id %s; short ids are collision-prone", norm.Value)
		}
		ok, err := s.Prompt.Confirm(fmt.Sprintf("Import key %s from the identity source?", shortOf(norm.Value)))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		sel, impErr := s.importCandidate(norm.Value)
		if impErr != nil {
			s.Out.Warnf(output.CodeGPGImportFailed, "import of %s failed: %v", shortOf(norm.Value), impErr)
			continue
		}
		return sel, nil
	}

	ok, err := s.Prompt.Confirm("Generate a new signing key?")
	if err != nil {
		return nil, err
	}
	if ok {
		return s.generate()
	}

	return nil, output.NewError(output.CodeNoSuitableKey,
		"no signing key selected").
		WithRemediation("re-run and accept one of the offered keys, or run with --new")
}

// generate creates a fresh key for the git identity. Unattended runs fail
// without an identity and generate without a passphrase; interactive runs
// prompt for the missing identity and protect the key.
func (s *Selector) generate() (*Selection, error) {
	id := s.Git.Identity()
	if !id.Complete() {
		if s.Opts.Auto {
			return nil, output.NewError(output.CodeInvalidInput,
				"user.name and user.email must be set for unattended key generation").
				WithRemediation(`git config --global user.name "Your Name" && git config --global user.email you@example.com`)
		}
		var err error
		if id, err = s.promptIdentity(id); err != nil {
			return nil, err
		}
	}

	protect := !s.Opts.Auto
	if !protect {
		s.Out.Warnf(output.CodeGeneralError,
			"generating key without passphrase protection; protect it later with gpg --edit-key")
	}

	if s.Opts.DryRun {
		s.Out.Infof("dry-run: would generate RSA 4096 key for %s <%s>", id.Name, id.Email)
		return &Selection{Generated: true}, nil
	}

	rec, err := s.Keyring.Generate(id.Name, id.Email, protect)
	if err != nil {
		return nil, output.NewErrorf(output.CodeGPGGenerateFailed,
			"key generation failed: %v", err).WithCause(err)
	}
	s.Out.Successf("generated new signing key %s", rec.ShortID())
	return &Selection{Fingerprint: rec.Fingerprint, Generated: true}, nil
}

// configuredKey returns the configured signing key when the full
// consistency check passes and the key has secret material. Any issue at
// all sends the caller to the next step of the chain.
func (s *Selector) configuredKey() *gpg.KeyRecord {
	configured := s.Git.Signing().SigningKey
	if configured == "" {
		return nil
	}
	if _, err := gpg.NormalizeFingerprint(configured); err != nil {
		s.Out.Warnf(output.CodeFingerprintInvalid,
			"ignoring configured signing key %q: %v", configured, err)
		return nil
	}
	if issues := s.Check(); len(issues) > 0 {
		s.Out.Warnf(output.CodeOperationFailed,
			"configured signing key %s is not reusable (%s), looking for a better key",
			configured, issueCodes(issues))
		return nil
	}

	keys, err := s.Keyring.ListSecretKeys("")
	if err != nil {
		return nil
	}
	rec := findKey(keys, configured)
	if rec == nil || !rec.HasSecret {
		return nil
	}
	return rec
}

// issueCodes renders a comma-separated list of issue codes for log output.
func issueCodes(issues []Issue) string {
	codes := make([]string, len(issues))
	for i, issue := range issues {
		codes[i] = issue.Code
	}
	return strings.Join(codes, ", ")
}

// newestLocalKey returns the most recently created secret key for the git
// email, or nil when the email is unset or nothing matches.
func (s *Selector) newestLocalKey() *gpg.KeyRecord {
	email := s.Git.Identity().Email
	if email == "" {
		return nil
	}
	rec, err := s.Keyring.NewestKeyForEmail(email)
	if err != nil || rec == nil || !rec.HasSecret {
		return nil
	}
	return rec
}

// importFromSource tries the identity source candidates in order and
// imports the first one that yields usable secret material. Per-candidate
// failures are warnings; only exhaustion returns nil.
func (s *Selector) importFromSource() *Selection {
	for _, fpr := range s.sourceCandidates() {
		norm, err := gpg.NormalizeFingerprint(fpr)
		if err != nil {
			s.Out.Warnf(output.CodeFingerprintInvalid, "skipping source key %q: %v", fpr, err)
			continue
		}
		if norm.Short {
			s.Out.Warnf(output.CodeFingerprintShort,
				"identity source listed short id %s; short ids are collision-prone", norm.Value)
		}
		sel, err := s.importCandidate(norm.Value)
		if err != nil {
			s.Out.Warnf(output.CodeGPGImportFailed, "import of %s failed: %v", shortOf(norm.Value), err)
			continue
		}
		return sel
	}
	return nil
}

// sourceCandidates lists importable fingerprints from the identity source.
// ListCandidates performs its own reachability and login check, so an
// unavailable or unauthenticated source degrades to a warning and an
// empty list.
func (s *Selector) sourceCandidates() []string {
	if s.Source == nil {
		return nil
	}
	candidates, err := s.Source.ListCandidates(s.Git.Identity().Email)
	if err != nil {
		s.Out.Warnf(output.CodeSourceUnavailable, "identity source unavailable: %v", err)
		return nil
	}
	return candidates
}

// importCandidate pulls one key pair from the identity source into the
// keyring and verifies the secret material arrived.
func (s *Selector) importCandidate(fingerprint string) (*Selection, error) {
	if s.Opts.DryRun {
		s.Out.Infof("dry-run: would import key %s from the identity source", shortOf(fingerprint))
		return &Selection{Fingerprint: fingerprint, Imported: true}, nil
	}

	secret, err := s.Source.ExportSecret(fingerprint)
	if err != nil {
		return nil, err
	}
	public, err := s.Source.ExportPublic(fingerprint)
	if err != nil {
		return nil, err
	}
	if err := s.Keyring.Import(strings.NewReader(secret)); err != nil {
		return nil, err
	}
	if err := s.Keyring.Import(strings.NewReader(public)); err != nil {
		return nil, err
	}
	if !s.Keyring.HasSecretKey(fingerprint) {
		return nil, output.NewErrorf(output.CodeGPGNoSecretKey,
			"key %s imported without secret material", shortOf(fingerprint))
	}
	s.Out.Successf("imported key %s from the identity source", shortOf(fingerprint))
	return &Selection{Fingerprint: fingerprint, Imported: true}, nil
}

// promptIdentity collects the missing identity fields and persists them to
// git config, unless this is a dry run.
func (s *Selector) promptIdentity(id gitcfg.Identity) (gitcfg.Identity, error) {
	var err error
	if id.Name == "" {
		if id.Name, err = s.Prompt.Line("Full name"); err != nil {
			return id, err
		}
	}
	if id.Email == "" {
		if id.Email, err = s.Prompt.Line("Email address"); err != nil {
			return id, err
		}
	}
	if !id.Complete() {
		return id, output.NewError(output.CodeInvalidInput,
			"a name and email address are required to generate a key")
	}
	if s.Opts.DryRun {
		s.Out.Infof("dry-run: would set git identity to %s <%s>", id.Name, id.Email)
		return id, nil
	}
	if err := s.Git.SetIdentity(id); err != nil {
		return id, output.NewErrorf(output.CodeGitConfigError,
			"persisting git identity failed: %v", err).WithCause(err)
	}
	return id, nil
}

// shortOf derives the 16-character short id from a full fingerprint.
func shortOf(fingerprint string) string {
	if len(fingerprint) <= 16 {
		return fingerprint
	}
	return fingerprint[len(fingerprint)-16:]
}
