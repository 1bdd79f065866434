package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "v0.1.0"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "xforest",
		Version: version,
		Short:   "AVL and red-black trees playground",
		Long: `xforest builds AVL and red-black trees from the command line and
benchmarks both engines against the same random workload.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newShowCmd(), newBenchCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
