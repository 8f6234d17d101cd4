package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print per-level file counts and pending flush count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := open()
		if err != nil {
			return err
		}
		defer db.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pending flushes: %d\n", db.PendingFlushes())
		for _, ls := range db.Stats() {
			fmt.Fprintf(out, "level %d: %d files\n", ls.Level, ls.Files)
		}
		return nil
	},
}
