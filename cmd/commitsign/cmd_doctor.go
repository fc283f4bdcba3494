package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	clilib "github.com/commitsign/commitsign/internal/cli"
	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the current signing setup",
	Long: `Run the read-only consistency check over the keyring, the global
Git configuration, and the gpg-agent configuration. Reports every
inconsistency found; exits nonzero when the setup is broken.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cli, err := clilib.NewCLI(globalOpts, os.Stdout, os.Stderr)
		if err != nil {
			os.Exit(clilib.PrintError(os.Stderr, err).Int())
		}

		issues, err := cli.Doctor()
		if err != nil {
			os.Exit(clilib.PrintError(os.Stderr, err).Int())
		}
		if len(issues) == 0 {
			fmt.Println("commit signing is correctly configured")
			return
		}
		for _, issue := range issues {
			fmt.Printf("%s: %s\n", issue.Code, issue.Message)
		}
		os.Exit(output.ExitFailure.Int())
	},
}
