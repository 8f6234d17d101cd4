package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Retrieve the value for a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := open()
		if err != nil {
			return err
		}
		defer db.Close()

		value, ok, err := db.Get(args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("key %q not found", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(value))
		return nil
	},
}
