package output

// ExitCode represents the process exit code for CLI use.
// The tool deliberately exposes only two codes: success and failure.
// Structured Codes carry the machine-readable detail instead.
type ExitCode int

const (
	ExitSuccess ExitCode = 0
	ExitFailure ExitCode = 1
)

// Int returns the integer value of the exit code.
func (e ExitCode) Int() int {
	return int(e)
}
