package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/commitsign/commitsign/pkg/commitsign/config"
	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

// InitConfig writes a default configuration file at configPath. An
// existing file is never overwritten so user edits stay intact.
func InitConfig(configPath string, stdout io.Writer) error {
	if _, err := os.Stat(configPath); err == nil {
		return output.NewErrorf(output.CodeConfigInvalid,
			"config file already exists: %s", configPath).
			WithRemediation("edit it directly, or remove it first to regenerate the defaults")
	}

	if err := config.Save(configPath, config.DefaultConfig()); err != nil {
		return output.NewErrorf(output.CodeConfigInvalid, "writing config failed: %v", err).WithCause(err)
	}

	_, _ = fmt.Fprintf(stdout, "wrote %s\n", configPath)
	return nil
}
