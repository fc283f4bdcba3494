package main

import (
	"os"

	"github.com/spf13/cobra"

	clilib "github.com/commitsign/commitsign/internal/cli"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default commitsign configuration file.

By default the file is created at the XDG config location. Use -c to
specify a custom path. An existing config file is never overwritten.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		targetConfig := clilib.ResolveConfigPath(globalOpts.ConfigPath, globalOpts.Silent, os.Stderr)
		if err := clilib.InitConfig(targetConfig, os.Stdout); err != nil {
			os.Exit(clilib.PrintError(os.Stderr, err).Int())
		}
	},
}
