// Package backup snapshots the keyring directory before any mutation and
// restores it when a run fails partway. Snapshots are timestamp-named
// siblings of the keyring directory and are never deleted automatically
// unless a retention limit is configured.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

// Backup directories are named <keyring>.bak-<timestamp>, e.g.
// /home/op/.gnupg.bak-20260830-142233.
const (
	backupSuffix    = ".bak-"
	timestampLayout = "20060102-150405"
	lockName        = ".commitsign.lock"
)

// Handle identifies a snapshot taken by Manager.Snapshot.
type Handle struct {
	// Dir is the snapshot directory. Empty when the keyring directory did
	// not exist at snapshot time; rollback then simply removes whatever
	// was created since.
	Dir string
}

// Manager owns snapshot and rollback of a single keyring directory.
type Manager struct {
	keyringDir string
	now        func() time.Time
}

// NewManager returns a Manager for the given keyring directory.
func NewManager(keyringDir string) *Manager {
	return &Manager{keyringDir: keyringDir, now: time.Now}
}

// Snapshot copies the keyring directory to a timestamp-named sibling and
// returns its handle. A missing keyring directory is an informational no-op:
// the returned handle carries no snapshot and rollback will remove the
// directory entirely.
//
// An advisory lock beside the keyring serializes concurrent commitsign runs;
// the keyring itself and the Git configuration stay unlocked, as the tool
// assumes a single invocation per machine.
func (m *Manager) Snapshot() (Handle, error) {
	if _, err := os.Stat(m.keyringDir); err != nil {
		if os.IsNotExist(err) {
			return Handle{}, nil
		}
		return Handle{}, output.NewErrorf(output.CodeBackupFailed, "cannot read keyring directory %s", m.keyringDir).WithCause(err)
	}

	unlock, err := m.acquireLock()
	if err != nil {
		return Handle{}, err
	}
	defer unlock()

	dest := m.keyringDir + backupSuffix + m.now().UTC().Format(timestampLayout)
	if err := copyTree(m.keyringDir, dest); err != nil {
		// A half-written snapshot is worse than none.
		_ = os.RemoveAll(dest)
		return Handle{}, output.NewErrorf(output.CodeBackupFailed, "failed to snapshot keyring to %s", dest).
			WithRemediation("check free disk space and permissions next to the keyring directory").
			WithCause(err)
	}
	return Handle{Dir: dest}, nil
}

// Rollback restores the keyring directory from the snapshot: the current
// directory is removed, the snapshot copied back, and permissions restored
// to owner-only. With an empty handle (keyring absent at snapshot time) the
// keyring directory is removed, returning the machine to its pre-run state.
func (m *Manager) Rollback(h Handle) error {
	if err := os.RemoveAll(m.keyringDir); err != nil {
		return output.NewErrorf(output.CodeRollbackFailed, "failed to remove keyring directory %s", m.keyringDir).WithCause(err)
	}
	if h.Dir == "" {
		return nil
	}
	if err := copyTree(h.Dir, m.keyringDir); err != nil {
		return output.NewErrorf(output.CodeRollbackFailed, "failed to restore keyring from %s", h.Dir).
			WithRemediation(fmt.Sprintf("the snapshot is intact at %s; restore it manually", h.Dir)).
			WithCause(err)
	}
	if err := os.Chmod(m.keyringDir, 0o700); err != nil {
		return output.NewErrorf(output.CodeRollbackFailed, "failed to restore keyring permissions").WithCause(err)
	}
	return nil
}

// Prune removes the oldest backups beyond keepLast. keepLast <= 0 keeps
// everything, matching the historical never-prune behavior.
func (m *Manager) Prune(keepLast int) ([]string, error) {
	if keepLast <= 0 {
		return nil, nil
	}

	backups, err := m.list()
	if err != nil {
		return nil, err
	}
	if len(backups) <= keepLast {
		return nil, nil
	}

	// Timestamp names sort chronologically.
	sort.Strings(backups)
	doomed := backups[:len(backups)-keepLast]

	var removed []string
	for _, dir := range doomed {
		if err := os.RemoveAll(dir); err != nil {
			return removed, output.NewErrorf(output.CodeBackupFailed, "failed to prune backup %s", dir).WithCause(err)
		}
		removed = append(removed, dir)
	}
	return removed, nil
}

// list returns the absolute paths of all backup directories for the keyring.
func (m *Manager) list() ([]string, error) {
	parent := filepath.Dir(m.keyringDir)
	base := filepath.Base(m.keyringDir) + backupSuffix

	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, output.NewErrorf(output.CodeBackupFailed, "cannot read %s", parent).WithCause(err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), base) {
			backups = append(backups, filepath.Join(parent, entry.Name()))
		}
	}
	return backups, nil
}

// acquireLock takes the advisory run lock next to the keyring directory.
func (m *Manager) acquireLock() (func(), error) {
	path := filepath.Join(filepath.Dir(m.keyringDir), lockName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, output.NewErrorf(output.CodeBackupFailed, "cannot open lock file %s", path).WithCause(err)
	}
	if err := lockFile(file); err != nil {
		_ = file.Close()
		return nil, output.NewError(output.CodeBackupFailed, "another commitsign run appears to be active").WithCause(err)
	}
	return func() {
		_ = unlockFile(file)
		_ = file.Close()
	}, nil
}

// copyTree recursively copies src to dest, preserving file modes. Symlinks
// are copied as links; gnupg uses them for socket redirection.
func copyTree(src, dest string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		switch {
		case info.IsDir():
			return os.MkdirAll(target, info.Mode().Perm())
		case info.Mode()&os.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case info.Mode().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		default:
			// Sockets and other special files are runtime artifacts of
			// gpg-agent; they are not part of the keyring state.
			return nil
		}
	})
}

func copyFile(src, dest string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
