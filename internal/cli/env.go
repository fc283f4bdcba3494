package cli

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// requiredTools are the executables that must be resolvable on PATH
// before anything mutating runs.
var requiredTools = []string{"git", "curl", "sw_vers"}

// EnvironmentError reports a host that cannot run the tool, with
// per-platform suggestions for what to do instead.
type EnvironmentError struct {
	OS          string
	Arch        string
	Missing     []string
	Suggestions []string
}

func (e *EnvironmentError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("missing required tools on PATH: %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("unsupported platform %s/%s, this tool targets macOS", e.OS, e.Arch)
}

// Validator checks that the host environment can run the pipeline.
// The probes are injectable so tests can simulate other platforms.
type Validator struct {
	goos     string
	arch     string
	lookPath func(string) (string, error)
}

// NewValidator returns a validator bound to the real host.
func NewValidator() *Validator {
	return &Validator{
		goos:     runtime.GOOS,
		arch:     runtime.GOARCH,
		lookPath: exec.LookPath,
	}
}

// Validate confirms the host is macOS and the required tools are present.
func (v *Validator) Validate() error {
	if v.goos != "darwin" {
		return &EnvironmentError{
			OS:          v.goos,
			Arch:        v.arch,
			Suggestions: platformSuggestions(v.goos),
		}
	}

	var missing []string
	for _, tool := range requiredTools {
		if _, err := v.lookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}
	if len(missing) > 0 {
		return &EnvironmentError{
			OS:      v.goos,
			Arch:    v.arch,
			Missing: missing,
			Suggestions: []string{
				"install the Xcode command line tools: xcode-select --install",
			},
		}
	}
	return nil
}

func platformSuggestions(goos string) []string {
	switch goos {
	case "linux":
		return []string{
			"install gnupg through your distribution package manager and configure git manually",
			"for example: apt install gnupg git, then git config --global user.signingkey <key>",
		}
	case "windows":
		return []string{
			"install Gpg4win from https://gpg4win.org and configure git manually",
		}
	default:
		return []string{
			"configure gpg and git signing manually for this platform",
		}
	}
}
