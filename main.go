package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tasnim.dev/vpc-topology/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "vpc-topology",
		Short:         "Resolve and classify AWS VPC network topology",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cmd.NewViewCmd())
	rootCmd.AddCommand(cmd.NewExportCmd())
	rootCmd.AddCommand(cmd.NewDiscoverCmd())
	rootCmd.AddCommand(cmd.NewServeCmd())
	rootCmd.AddCommand(cmd.NewClassifyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
