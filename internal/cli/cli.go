package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/commitsign/commitsign/internal/xdg"

	"github.com/commitsign/commitsign/pkg/commitsign/backup"
	"github.com/commitsign/commitsign/pkg/commitsign/config"
	"github.com/commitsign/commitsign/pkg/commitsign/gitcfg"
	"github.com/commitsign/commitsign/pkg/commitsign/github"
	"github.com/commitsign/commitsign/pkg/commitsign/gpg"
	"github.com/commitsign/commitsign/pkg/commitsign/keybase"
	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

// ResolveConfigPath returns the effective config path considering:
// 1. Explicit configPath argument (the -c flag)
// 2. COMMITSIGN_CONFIG environment variable
// 3. XDG default path
// If both the flag and the env var are set, the flag wins with a warning.
func ResolveConfigPath(configPath string, silent bool, stderr io.Writer) string {
	if configPath != "" {
		if !silent && os.Getenv("COMMITSIGN_CONFIG") != "" {
			_, _ = fmt.Fprintf(stderr, "warning: COMMITSIGN_CONFIG environment variable ignored because -c flag was specified\n")
		}
		return configPath
	}
	if envConfig := os.Getenv("COMMITSIGN_CONFIG"); envConfig != "" {
		return envConfig
	}
	xdgPaths, _ := xdg.NewPaths()
	return xdgPaths.ConfigPath()
}

// CLI owns the wired components and drives the setup pipeline.
type CLI struct {
	opts      RunOptions
	cfg       config.Config
	env       *Validator
	keyring   gpg.Client
	git       GitConfig
	source    IdentitySource
	host      CodeHost
	backups   BackupManager
	agent     AgentManager
	prompt    Prompter
	out       *output.Handler
	gnupgHome string
}

// NewCLI builds a CLI bound to the real host tools.
func NewCLI(opts RunOptions, stdout, stderr io.Writer) (*CLI, error) {
	configPath := ResolveConfigPath(opts.ConfigPath, opts.Silent, stderr)

	xdgPaths, err := xdg.NewPaths()
	if err != nil {
		return nil, output.NewErrorf(output.CodeConfigInvalid, "resolving config directories failed: %v", err).WithCause(err)
	}
	if err := xdgPaths.EnsureDirs(); err != nil {
		return nil, output.NewErrorf(output.CodeConfigInvalid, "creating config directories failed: %v", err).WithCause(err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, output.NewErrorf(output.CodeConfigParseError, "loading config failed: %v", err).WithCause(err)
	}

	gnupgHome := gpg.DefaultGnupgHome()

	return &CLI{
		opts:      opts,
		cfg:       cfg,
		env:       NewValidator(),
		keyring:   gpg.NewClient(cfg.GPGProgram),
		git:       gitcfg.NewClient(cfg.GitProgram),
		source:    keybase.NewClient(cfg.KeybaseProgram),
		host:      github.NewClient(cfg.GHProgram),
		backups:   backup.NewManager(gnupgHome),
		agent:     gpg.NewAgent(gnupgHome),
		prompt:    NewTTYPrompter(),
		out:       output.NewHandler(stdout, stderr, output.WithSilent(opts.Silent)),
		gnupgHome: gnupgHome,
	}, nil
}

// Run executes the full pipeline: validate, snapshot, select a key,
// reconcile git config, configure the agent, sync external registries,
// verify. Any failure after the snapshot rolls the keyring and git
// signing config back.
func (c *CLI) Run() (err error) {
	if verr := c.env.Validate(); verr != nil {
		return environmentError(verr)
	}

	handle, err := c.snapshot()
	if err != nil {
		return err
	}

	defer func() {
		if err == nil || c.opts.DryRun {
			return
		}
		c.out.Warnf(output.CodeGeneralError, "setup failed, rolling back: %v", err)
		if rerr := c.backups.Rollback(handle); rerr != nil {
			err = output.NewErrorf(output.CodeRollbackFailed,
				"rollback failed: %v (setup error: %v)", rerr, err).WithCause(rerr)
			return
		}
		if uerr := c.git.UnsetSigning(); uerr != nil {
			c.out.Warnf(output.CodeGitConfigError, "clearing git signing config failed: %v", uerr)
		}
	}()

	selector := &Selector{
		Keyring: c.keyring,
		Git:     c.git,
		Source:  c.sourceIfEnabled(),
		Prompt:  c.prompt,
		Out:     c.out,
		Opts:    c.opts,
		Check:   c.checker().Check,
	}
	sel, err := selector.Select()
	if err != nil {
		return err
	}

	if err = c.reconcile(sel); err != nil {
		return err
	}
	if err = c.configureAgent(); err != nil {
		return err
	}

	c.sync(sel)

	if err = c.verify(sel); err != nil {
		return err
	}

	c.prune()
	c.out.Success("commit signing is configured")
	return nil
}

// Doctor runs the read-only consistency check.
func (c *CLI) Doctor() ([]Issue, error) {
	if verr := c.env.Validate(); verr != nil {
		return nil, environmentError(verr)
	}
	return c.checker().Check(), nil
}

// checker builds the consistency diagnostic over the wired components.
func (c *CLI) checker() *Checker {
	return &Checker{
		Keyring:     c.keyring,
		Git:         c.git,
		AgentExists: c.agent.Configured,
	}
}

// snapshot backs up the keyring before anything mutates it.
func (c *CLI) snapshot() (backup.Handle, error) {
	if c.opts.DryRun {
		c.out.Infof("dry-run: would back up %s", c.gnupgHome)
		return backup.Handle{}, nil
	}
	handle, err := c.backups.Snapshot()
	if err != nil {
		return backup.Handle{}, output.NewErrorf(output.CodeBackupFailed,
			"keyring backup failed: %v", err).WithCause(err)
	}
	if handle.Dir != "" {
		c.out.Infof("keyring backed up to %s", handle.Dir)
	}
	return handle, nil
}

// reconcile wires the selected key into git config. The dry-run generation
// path has no fingerprint yet so it only describes the writes.
func (c *CLI) reconcile(sel *Selection) error {
	program := c.gpgProgramPath()

	if c.opts.DryRun {
		if sel.Fingerprint == "" {
			c.out.Info("dry-run: would set user.signingkey to the new key, gpg.program, and commit.gpgsign=true")
			return nil
		}
		desired := gitcfg.SigningConfiguration{
			SigningKey: shortOf(sel.Fingerprint),
			GPGProgram: program,
			CommitSign: true,
		}
		current := c.git.Signing()
		if current == desired {
			c.out.Info("dry-run: git signing config already up to date")
		} else {
			c.out.Infof("dry-run: would set user.signingkey=%s gpg.program=%s commit.gpgsign=true",
				shortOf(sel.Fingerprint), program)
		}
		return nil
	}

	delta, err := c.git.Apply(gitcfg.SigningConfiguration{
		SigningKey: shortOf(sel.Fingerprint),
		GPGProgram: program,
		CommitSign: true,
	})
	if err != nil {
		return err
	}
	for _, key := range delta.RemovedConflicts {
		c.out.Infof("removed conflicting git setting %s", key)
	}
	if delta.Changed() {
		c.out.Successf("git signing config updated for key %s", shortOf(sel.Fingerprint))
	} else {
		c.out.Info("git signing config already up to date")
	}
	return nil
}

// configureAgent writes gpg-agent.conf only when the file does not exist
// at all. An existing conf is user-owned and is never rewritten, even when
// it lacks the pinentry line this tool manages.
func (c *CLI) configureAgent() error {
	if c.agent.ConfPresent() {
		if c.agent.Configured() {
			c.out.Info("gpg-agent already configured")
		} else {
			c.out.Warnf(output.CodeGPGError,
				"gpg-agent.conf exists but has no pinentry-program line; add one, the file is left untouched")
		}
		return nil
	}
	if c.opts.DryRun {
		c.out.Infof("dry-run: would write gpg-agent.conf in %s and reload the agent", c.gnupgHome)
		return nil
	}
	if err := c.agent.WriteConf(gpg.AgentSettings{
		Pinentry:    c.cfg.Agent.Pinentry,
		CacheTTL:    c.cfg.Agent.CacheTTL,
		MaxCacheTTL: c.cfg.Agent.MaxCacheTTL,
	}); err != nil {
		return output.NewErrorf(output.CodeGPGError,
			"writing gpg-agent.conf failed: %v", err).WithCause(err)
	}
	if err := c.agent.Reload(); err != nil {
		c.out.Warnf(output.CodeGPGError, "reloading gpg-agent failed: %v", err)
	}
	return nil
}

// sync pushes the public key to the enabled external registries. Failures
// here never fail the run.
func (c *CLI) sync(sel *Selection) {
	if sel.Fingerprint == "" {
		return
	}

	if c.cfg.Sync.Keybase && c.source != nil && !sel.Imported {
		if c.opts.DryRun {
			c.out.Infof("dry-run: would upload key %s to keybase", shortOf(sel.Fingerprint))
		} else if err := c.uploadToSource(sel.Fingerprint); err != nil {
			c.out.Warnf(output.CodeUploadFailed, "keybase upload failed: %v", err)
		}
	}

	if c.cfg.Sync.GitHub && c.host != nil {
		if c.opts.DryRun {
			c.out.Infof("dry-run: would register key %s with github", shortOf(sel.Fingerprint))
			return
		}
		if err := c.host.Authenticated(); err != nil {
			c.out.Warnf(output.CodeSourceNotAuthenticated, "github upload skipped: %v", err)
			return
		}
		if err := c.uploadToHost(sel.Fingerprint); err != nil {
			c.out.Warnf(output.CodeUploadFailed, "github upload failed: %v", err)
			return
		}
		c.out.Successf("key %s registered with github", shortOf(sel.Fingerprint))
	}
}

func (c *CLI) uploadToSource(fingerprint string) error {
	if err := c.source.Status(); err != nil {
		return err
	}
	armored, err := c.keyring.ExportPublicArmored(fingerprint)
	if err != nil {
		return err
	}
	return c.source.UploadKey(armored)
}

func (c *CLI) uploadToHost(fingerprint string) error {
	armored, err := c.keyring.ExportPublicArmored(fingerprint)
	if err != nil {
		return err
	}
	return c.host.Upload(armored)
}

// verify re-runs the consistency check on the final state. A dry run
// leaves the host untouched, so there is nothing to verify.
func (c *CLI) verify(sel *Selection) error {
	if c.opts.DryRun {
		c.out.Info("dry-run: no changes were made")
		return nil
	}

	issues := c.checker().Check()
	if len(issues) == 0 {
		return nil
	}
	for _, issue := range issues {
		c.out.Warnf(output.CodeOperationFailed, "verification: %s", issue.Message)
	}
	return output.NewErrorf(output.CodeOperationFailed,
		"verification failed with %d issue(s) for key %s", len(issues), shortOf(sel.Fingerprint)).
		WithRemediation("run commitsign doctor for details")
}

// prune applies the backup retention policy after a successful run.
func (c *CLI) prune() {
	if c.opts.DryRun || c.cfg.Backup.KeepLast <= 0 {
		return
	}
	removed, err := c.backups.Prune(c.cfg.Backup.KeepLast)
	if err != nil {
		c.out.Warnf(output.CodeBackupFailed, "pruning old backups failed: %v", err)
		return
	}
	for _, dir := range removed {
		c.out.Infof("pruned old backup %s", dir)
	}
}

// sourceIfEnabled returns the identity source only when keybase sync is
// enabled, so disabled configs never touch the keybase binary.
func (c *CLI) sourceIfEnabled() IdentitySource {
	if !c.cfg.Sync.Keybase {
		return nil
	}
	return c.source
}

// gpgProgramPath resolves the gpg binary path written to gpg.program.
func (c *CLI) gpgProgramPath() string {
	if c.cfg.GPGProgram != "" {
		return c.cfg.GPGProgram
	}
	if path, err := exec.LookPath("gpg"); err == nil {
		return path
	}
	return "gpg"
}

// environmentError converts a validator failure into a structured error.
func environmentError(err error) error {
	var envErr *EnvironmentError
	if !errors.As(err, &envErr) {
		return err
	}
	code := output.CodeUnsupportedPlatform
	if len(envErr.Missing) > 0 {
		code = output.CodeMissingTool
	}
	e := output.NewError(code, envErr.Error())
	if len(envErr.Suggestions) > 0 {
		e = e.WithRemediation(envErr.Suggestions[0])
	}
	return e
}
