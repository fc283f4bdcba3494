package cli

// RunOptions is the immutable run configuration built once from parsed
// flags and passed explicitly to every component. Nothing in the pipeline
// reads mode or dry-run state from anywhere else.
type RunOptions struct {
	ForceNew   bool   // --new: always generate a fresh key
	Auto       bool   // --auto: no prompting; with --new selects unattended generation
	DryRun     bool   // --dry-run: describe mutations instead of performing them
	Silent     bool   // --silent: suppress warnings
	ConfigPath string // -c: explicit config file path
}

// Mode is the key-selection operating mode derived from the flags.
type Mode int

const (
	ModeInteractive Mode = iota
	ModeAutomatic
	ModeForceNew
)

// Mode returns the selection mode. --new wins over --auto; --auto then
// picks the unattended sub-branch of generation.
func (o RunOptions) Mode() Mode {
	switch {
	case o.ForceNew:
		return ModeForceNew
	case o.Auto:
		return ModeAutomatic
	default:
		return ModeInteractive
	}
}

// String returns the mode name for log output.
func (m Mode) String() string {
	switch m {
	case ModeAutomatic:
		return "automatic"
	case ModeForceNew:
		return "force-new"
	default:
		return "interactive"
	}
}
