package gitcfg

import (
	"fmt"
	"strings"
	"testing"
)

// fakeGit implements Runner on top of an in-memory key-value store, counting
// writes so idempotence can be asserted.
type fakeGit struct {
	values map[string]string
	writes int
	failOn string // key whose write fails, for error-path tests
}

func newFakeGit() *fakeGit {
	return &fakeGit{values: make(map[string]string)}
}

func (f *fakeGit) Output(args ...string) (string, error) {
	if len(args) < 3 || args[0] != "config" || args[1] != "--global" {
		return "", fmt.Errorf("unexpected git invocation: %v", args)
	}

	switch args[2] {
	case "--get":
		key := args[3]
		val, ok := f.values[key]
		if !ok {
			return "", fmt.Errorf("exit status 1")
		}
		return val + "\n", nil
	case "--unset":
		key := args[3]
		if key == f.failOn {
			return "", fmt.Errorf("could not lock config file")
		}
		if _, ok := f.values[key]; !ok {
			return "", fmt.Errorf("exit status 5")
		}
		f.writes++
		delete(f.values, key)
		return "", nil
	default:
		key, value := args[2], args[3]
		if key == f.failOn {
			return "", fmt.Errorf("could not lock config file")
		}
		f.writes++
		f.values[key] = value
		return "", nil
	}
}

func TestApplyWritesAllFieldsOnFreshConfig(t *testing.T) {
	git := newFakeGit()
	client := NewClientWithRunner(git)

	desired := SigningConfiguration{
		SigningKey: "89ABCDEF01234567",
		GPGProgram: "/usr/local/bin/gpg",
		CommitSign: true,
	}

	delta, err := client.Apply(desired)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(delta.Written) != 3 {
		t.Errorf("Written = %v, want 3 keys", delta.Written)
	}
	if got := client.Signing(); got != desired {
		t.Errorf("Signing() = %+v, want %+v", got, desired)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	git := newFakeGit()
	client := NewClientWithRunner(git)

	desired := SigningConfiguration{
		SigningKey: "89ABCDEF01234567",
		GPGProgram: "/usr/local/bin/gpg",
		CommitSign: true,
	}

	if _, err := client.Apply(desired); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	writesAfterFirst := git.writes

	delta, err := client.Apply(desired)
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if git.writes != writesAfterFirst {
		t.Errorf("second Apply performed %d extra writes", git.writes-writesAfterFirst)
	}
	if delta.Changed() {
		t.Errorf("second Apply reported changes: %+v", delta)
	}
	if len(delta.AlreadyConfigured) != 3 {
		t.Errorf("AlreadyConfigured = %v, want 3 keys", delta.AlreadyConfigured)
	}
}

func TestApplyWritesOnlyDeltas(t *testing.T) {
	git := newFakeGit()
	git.values["user.signingkey"] = "89ABCDEF01234567"
	git.values["commit.gpgsign"] = "false"
	client := NewClientWithRunner(git)

	delta, err := client.Apply(SigningConfiguration{
		SigningKey: "89ABCDEF01234567",
		GPGProgram: "/usr/local/bin/gpg",
		CommitSign: true,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	joined := strings.Join(delta.Written, ",")
	if strings.Contains(joined, "user.signingkey") {
		t.Errorf("signing key rewritten although unchanged: %v", delta.Written)
	}
	if !strings.Contains(joined, "commit.gpgsign") || !strings.Contains(joined, "gpg.program") {
		t.Errorf("Written = %v, want commit.gpgsign and gpg.program", delta.Written)
	}
}

func TestApplyRemovesSSHSigningConfig(t *testing.T) {
	git := newFakeGit()
	git.values["gpg.format"] = "ssh"
	git.values["gpg.ssh.program"] = "/usr/bin/ssh-keygen"
	// GPG settings already match the desired state.
	git.values["user.signingkey"] = "89ABCDEF01234567"
	git.values["gpg.program"] = "/usr/local/bin/gpg"
	git.values["commit.gpgsign"] = "true"
	client := NewClientWithRunner(git)

	delta, err := client.Apply(SigningConfiguration{
		SigningKey: "89ABCDEF01234567",
		GPGProgram: "/usr/local/bin/gpg",
		CommitSign: true,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Even with zero GPG writes the conflicting settings must go.
	if len(delta.Written) != 0 {
		t.Errorf("Written = %v, want none", delta.Written)
	}
	if len(delta.RemovedConflicts) != 2 {
		t.Errorf("RemovedConflicts = %v, want gpg.format and gpg.ssh.program", delta.RemovedConflicts)
	}
	if _, ok := git.values["gpg.format"]; ok {
		t.Error("gpg.format still set")
	}
}

func TestApplyPropagatesWriteFailure(t *testing.T) {
	git := newFakeGit()
	git.failOn = "user.signingkey"
	client := NewClientWithRunner(git)

	if _, err := client.Apply(SigningConfiguration{SigningKey: "89ABCDEF01234567", CommitSign: true}); err == nil {
		t.Fatal("expected ConfigError")
	}
}

func TestUnsetSigning(t *testing.T) {
	git := newFakeGit()
	git.values["user.signingkey"] = "89ABCDEF01234567"
	git.values["commit.gpgsign"] = "true"
	git.values["gpg.program"] = "/usr/local/bin/gpg"
	client := NewClientWithRunner(git)

	if err := client.UnsetSigning(); err != nil {
		t.Fatalf("UnsetSigning: %v", err)
	}
	for _, key := range []string{"user.signingkey", "commit.gpgsign", "gpg.program"} {
		if _, ok := git.values[key]; ok {
			t.Errorf("%s still set", key)
		}
	}

	// Unsetting again must be a no-op, not an error.
	if err := client.UnsetSigning(); err != nil {
		t.Fatalf("second UnsetSigning: %v", err)
	}
}

func TestIdentity(t *testing.T) {
	git := newFakeGit()
	client := NewClientWithRunner(git)

	if id := client.Identity(); id.Complete() {
		t.Errorf("fresh config should have incomplete identity, got %+v", id)
	}

	want := Identity{Name: "Jane Doe", Email: "jane@example.com"}
	if err := client.SetIdentity(want); err != nil {
		t.Fatalf("SetIdentity: %v", err)
	}
	if got := client.Identity(); got != want {
		t.Errorf("Identity() = %+v, want %+v", got, want)
	}
}
