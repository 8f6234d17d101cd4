package cmd

import (
	"github.com/spf13/cobra"
)

var delCmd = &cobra.Command{
	Use:   "del <key>",
	Short: "Delete a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := open()
		if err != nil {
			return err
		}
		defer db.Close()

		return db.Delete(args[0])
	},
}
