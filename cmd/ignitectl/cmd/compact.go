package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
)

var compactCmd = &cobra.Command{
	Use:   "compact <level>",
	Short: "Run one compaction pass at the given level, synchronously",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}

		db, err := open()
		if err != nil {
			return err
		}
		defer db.Close()

		return db.CompactLevel(level)
	},
}
