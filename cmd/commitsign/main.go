package main

import (
	"fmt"
	"os"

	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

// main runs the CLI
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(output.ExitFailure.Int())
	}
}
