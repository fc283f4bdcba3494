package main

import (
	"os"

	"github.com/spf13/cobra"

	clilib "github.com/commitsign/commitsign/internal/cli"
)

var (
	version = "unknown"
	commit  = "none"
	date    = "unknown"
)

var globalOpts clilib.RunOptions

var rootCmd = &cobra.Command{
	Use:   "commitsign",
	Short: "Set up GPG-signed Git commits on macOS",
	Long: `commitsign: one command to sign your Git commits.

Finds or creates a GPG key for your Git identity, wires it into the
global Git configuration, configures gpg-agent, and optionally syncs
the key with Keybase and GitHub. The keyring is backed up before any
change and restored if anything fails.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cli, err := clilib.NewCLI(globalOpts, os.Stdout, os.Stderr)
		if err != nil {
			os.Exit(clilib.PrintError(os.Stderr, err).Int())
		}
		if err := cli.Run(); err != nil {
			os.Exit(clilib.PrintError(os.Stderr, err).Int())
		}
	},
}

func init() {
	// Bad flags still get the usage text even though SilenceUsage
	// suppresses it for runtime failures.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		cmd.Println(cmd.UsageString())
		return err
	})

	rootCmd.PersistentFlags().StringVarP(&globalOpts.ConfigPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.Silent, "silent", "s", false, "Silent mode (suppress warnings)")
	rootCmd.Flags().BoolVar(&globalOpts.Auto, "auto", false, "Unattended mode, never prompts")
	rootCmd.Flags().BoolVar(&globalOpts.ForceNew, "new", false, "Always generate a fresh signing key")
	rootCmd.Flags().BoolVar(&globalOpts.DryRun, "dry-run", false, "Describe changes without performing them")

	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}
