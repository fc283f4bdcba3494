package cli

import (
	"github.com/commitsign/commitsign/pkg/commitsign/backup"
	"github.com/commitsign/commitsign/pkg/commitsign/gitcfg"
	"github.com/commitsign/commitsign/pkg/commitsign/gpg"
)

// GitConfig defines the Git configuration operations required by the CLI.
// Implemented by gitcfg.Client; tests use an in-memory fake.
type GitConfig interface {
	Identity() gitcfg.Identity
	SetIdentity(id gitcfg.Identity) error
	Signing() gitcfg.SigningConfiguration
	Apply(desired gitcfg.SigningConfiguration) (gitcfg.Delta, error)
	UnsetSigning() error
}

// IdentitySource defines the external key registry operations required by
// the key selection engine. Implemented by keybase.Client.
type IdentitySource interface {
	Status() error
	ListCandidates(email string) ([]string, error)
	ExportPublic(fingerprint string) (string, error)
	ExportSecret(fingerprint string) (string, error)
	UploadKey(armored string) error
}

// CodeHost defines the code-hosting key registry operations. Implemented by
// github.Client.
type CodeHost interface {
	Authenticated() error
	Upload(armored string) error
}

// BackupManager defines keyring snapshot and rollback. Implemented by
// backup.Manager.
type BackupManager interface {
	Snapshot() (backup.Handle, error)
	Rollback(h backup.Handle) error
	Prune(keepLast int) ([]string, error)
}

// AgentManager manages the gpg-agent configuration file. Implemented by
// gpg.Agent; tests use a fake so the suite never touches a live agent.
type AgentManager interface {
	// ConfPresent reports whether gpg-agent.conf exists at all.
	ConfPresent() bool
	// Configured reports whether the conf carries a pinentry-program line.
	Configured() bool
	WriteConf(s gpg.AgentSettings) error
	Reload() error
}

// Prompter asks the operator questions. The default implementation reads
// from the terminal; tests script the answers.
type Prompter interface {
	// Confirm asks a y/N question and reports the answer.
	Confirm(prompt string) (bool, error)
	// Line asks for a free-text value.
	Line(prompt string) (string, error)
}
