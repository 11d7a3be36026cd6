package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "contractctl",
		Short:   "Operator tools for membership contract templates",
		Version: Version,
	}

	rootCmd.AddCommand(fieldsCmd())
	rootCmd.AddCommand(fillCmd())
	rootCmd.AddCommand(syncTemplatesCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
