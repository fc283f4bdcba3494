package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

// PrintError prints an error to w and returns the process exit code.
// Structured errors print their remediation hint on a second line.
func PrintError(w io.Writer, err error) output.ExitCode {
	if err == nil {
		return output.ExitSuccess
	}

	var structured *output.Error
	if errors.As(err, &structured) {
		_, _ = fmt.Fprintf(w, "error: %s\n", structured.Message)
		if structured.Remediation != "" {
			_, _ = fmt.Fprintf(w, "  hint: %s\n", structured.Remediation)
		}
		return structured.ExitCode()
	}

	_, _ = fmt.Fprintf(w, "error: %v\n", err)
	return output.ExitFailure
}
