package main

import (
	"fmt"
	"os"

	cmd "github.com/certforge/certmint/cmd/certmint/commands"
)

func main() {
	rootCmd := cmd.RootCmd

	rootCmd.AddCommand(
		cmd.InitCmd,
		cmd.NewRunCmd(),
		cmd.VersionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
