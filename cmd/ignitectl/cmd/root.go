// Package cmd implements ignitectl's cobra command tree: a root command
// carrying the shared --data-dir flag, and one subcommand per store
// operation (put/get/del/iter/stats/compact/gc).
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ignitedb/ignite/pkg/ignite"
	"github.com/ignitedb/ignite/pkg/options"
)

var dataDir string

var rootCmd = &cobra.Command{
	Use:   "ignitectl",
	Short: "Operate an ignite data directory from the command line",
}

// Execute runs the configured command tree; main's error handling is the
// only caller.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "path to the ignite data directory (required)")
	rootCmd.MarkPersistentFlagRequired("data-dir")

	rootCmd.AddCommand(putCmd, getCmd, delCmd, iterCmd, statsCmd, compactCmd, gcCmd)
}

// open starts an Instance over dataDir for the duration of a single
// ignitectl invocation. Each subcommand opens and closes its own
// Instance rather than sharing one across the process, since ignitectl
// never runs two subcommands in the same process.
func open() (*ignite.Instance, error) {
	return ignite.NewInstance(context.Background(), "ignitectl", options.WithDataDir(dataDir))
}
