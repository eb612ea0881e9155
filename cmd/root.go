package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "identity",
	Short: "Snapbooth identity service",
	Long:  `The identity and session lifecycle service for Snapbooth: registration with email verification, login, server-side sessions with CSRF protection, and password reset.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
