package gpg

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

// fakeRunner maps a joined argument string to canned output, recording every
// invocation.
type fakeRunner struct {
	responses map[string]string
	errs      map[string]error
	calls     []string
}

func (f *fakeRunner) Output(stdin io.Reader, args ...string) ([]byte, error) {
	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if out, ok := f.responses[key]; ok {
		return []byte(out), nil
	}
	return nil, fmt.Errorf("unexpected invocation: gpg %s", key)
}

const listSecretArgs = "--batch --with-colons --fingerprint --list-secret-keys"

func listingFor(fpr string, created int64, uid string) string {
	return fmt.Sprintf(
		"sec:u:4096:1:%s:%d:::u:::scESC:::+:::23::0:\nfpr:::::::::%s:\nuid:u::::%d::HASH::%s::::::::::0:\n",
		fpr[len(fpr)-16:], created, fpr, created, uid)
}

func TestListSecretKeysFiltersByEmail(t *testing.T) {
	listing := listingFor("0123456789ABCDEF0123456789ABCDEF01234567", 1700000000, "Jane Doe <jane@example.com>") +
		listingFor("89ABCDEF0123456789ABCDEF0123456789ABCDEF", 1600000000, "Other <other@example.org>")

	run := &fakeRunner{responses: map[string]string{listSecretArgs: listing}}
	client := NewClientWithRunner(run)

	all, err := client.ListSecretKeys("")
	if err != nil {
		t.Fatalf("ListSecretKeys: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(all))
	}

	filtered, err := client.ListSecretKeys("jane@example.com")
	if err != nil {
		t.Fatalf("ListSecretKeys: %v", err)
	}
	if len(filtered) != 1 || !filtered[0].MatchesEmail("jane@example.com") {
		t.Errorf("filtered = %v", filtered)
	}
}

func TestListSecretKeysEmptyKeyringIsNotAnError(t *testing.T) {
	run := &fakeRunner{errs: map[string]error{listSecretArgs: errors.New("gpg: error reading key: No secret key")}}
	client := NewClientWithRunner(run)

	keys, err := client.ListSecretKeys("")
	if err != nil {
		t.Fatalf("empty keyring should not error: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("expected no keys, got %v", keys)
	}
}

func TestNewestKeyForEmail(t *testing.T) {
	listing := listingFor("0123456789ABCDEF0123456789ABCDEF01234567", 1600000000, "Jane <jane@example.com>") +
		listingFor("89ABCDEF0123456789ABCDEF0123456789ABCDEF", 1700000000, "Jane <jane@example.com>")

	run := &fakeRunner{responses: map[string]string{listSecretArgs: listing}}
	client := NewClientWithRunner(run)

	rec, err := client.NewestKeyForEmail("jane@example.com")
	if err != nil {
		t.Fatalf("NewestKeyForEmail: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a key")
	}
	if rec.Fingerprint != "89ABCDEF0123456789ABCDEF0123456789ABCDEF" {
		t.Errorf("picked %s, want the newer key", rec.Fingerprint)
	}
}

func TestNewestKeyForEmailNoMatch(t *testing.T) {
	run := &fakeRunner{responses: map[string]string{listSecretArgs: ""}}
	client := NewClientWithRunner(run)

	rec, err := client.NewestKeyForEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("NewestKeyForEmail: %v", err)
	}
	if rec != nil {
		t.Errorf("expected nil, got %v", rec)
	}
}

func TestShortIDOf(t *testing.T) {
	fpr := "0123456789ABCDEF0123456789ABCDEF01234567"
	run := &fakeRunner{responses: map[string]string{
		"--batch --with-colons --fingerprint --list-keys " + fpr: "pub:u:4096:1:89ABCDEF01234567:1700000000:::u:::scESC::::::23::0:\nfpr:::::::::" + fpr + ":\n",
	}}
	client := NewClientWithRunner(run)

	short, ok := client.ShortIDOf(fpr)
	if !ok {
		t.Fatal("expected short id")
	}
	if short != "89ABCDEF01234567" {
		t.Errorf("short = %q", short)
	}

	// Missing key: lookup fails, no short id.
	if _, ok := client.ShortIDOf("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF"); ok {
		t.Error("expected no short id for absent key")
	}
}

func TestImportReportsTypedError(t *testing.T) {
	run := &fakeRunner{errs: map[string]error{"--batch --import": errors.New("gpg: no valid OpenPGP data found")}}
	client := NewClientWithRunner(run)

	err := client.Import(strings.NewReader("garbage"))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "import") {
		t.Errorf("error = %v", err)
	}
}

func TestParseKeyCreated(t *testing.T) {
	statusOut := "gpg: key generation completed\n[GNUPG:] PROGRESS primegen + 10 120\n[GNUPG:] KEY_CREATED B 0123456789abcdef0123456789abcdef01234567\n"
	if got := parseKeyCreated(statusOut); got != "0123456789ABCDEF0123456789ABCDEF01234567" {
		t.Errorf("parseKeyCreated = %q", got)
	}
	if got := parseKeyCreated("no status lines here\n"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestBatchSpec(t *testing.T) {
	spec := batchSpec("Jane Doe", "jane@example.com", false)
	for _, want := range []string{
		"Key-Type: RSA",
		"Key-Length: 4096",
		"Name-Real: Jane Doe",
		"Name-Email: jane@example.com",
		"Expire-Date: 2y",
		"%no-protection",
		"%commit",
	} {
		if !strings.Contains(spec, want) {
			t.Errorf("batch spec missing %q:\n%s", want, spec)
		}
	}

	protected := batchSpec("Jane Doe", "jane@example.com", true)
	if strings.Contains(protected, "%no-protection") {
		t.Error("passphrase-protected spec must not contain %no-protection")
	}
}

func TestGenerateRequiresIdentity(t *testing.T) {
	client := NewClientWithRunner(&fakeRunner{})
	if _, err := client.Generate("", "jane@example.com", false); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := client.Generate("Jane", "", false); err == nil {
		t.Error("expected error for missing email")
	}
}

func TestGenerateUsesStatusFingerprint(t *testing.T) {
	fpr := "0123456789ABCDEF0123456789ABCDEF01234567"
	run := &fakeRunner{responses: map[string]string{
		"--batch --status-fd 1 --generate-key": "[GNUPG:] KEY_CREATED B " + fpr + "\n",
		"--batch --with-colons --fingerprint --list-secret-keys " + fpr: listingFor(fpr, 1700000000, "Jane Doe <jane@example.com>"),
	}}
	client := NewClientWithRunner(run)

	rec, err := client.Generate("Jane Doe", "jane@example.com", false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if rec.Fingerprint != fpr {
		t.Errorf("fingerprint = %s", rec.Fingerprint)
	}
	if rec.Algorithm != AlgoRSA || rec.Bits != 4096 {
		t.Errorf("algorithm = %s/%d, want RSA/4096", rec.Algorithm, rec.Bits)
	}
	if !rec.HasSecret {
		t.Error("generated key must carry secret material")
	}
	if !rec.MatchesEmail("jane@example.com") {
		t.Errorf("uids = %v", rec.UIDs)
	}

	// The status line carried the fingerprint, so no newest-key scan ran.
	for _, call := range run.calls {
		if call == listSecretArgs {
			t.Error("Generate fell back to newest-key lookup despite KEY_CREATED")
		}
	}
}
