// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"runtime"

	"github.com/luthersystems/corelisp/lisp"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the runtime version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "corelisp %s (Go %s)\n", lisp.Version, runtime.Version())
	},
}
