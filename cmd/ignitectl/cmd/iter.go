package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	iterLo string
	iterHi string
)

var iterCmd = &cobra.Command{
	Use:   "iter",
	Short: "Scan keys in [--lo, --hi), printing key\\tvalue per line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := open()
		if err != nil {
			return err
		}
		defer db.Close()

		var lo, hi []byte
		if iterLo != "" {
			lo = []byte(iterLo)
		}
		if iterHi != "" {
			hi = []byte(iterHi)
		}

		it, err := db.NewIterator(lo, hi)
		if err != nil {
			return err
		}
		defer it.Close()

		out := cmd.OutOrStdout()
		for it.Next() {
			value, ok, err := it.Value()
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", it.Key(), value)
		}
		return nil
	},
}

func init() {
	iterCmd.Flags().StringVar(&iterLo, "lo", "", "inclusive lower bound (default: unbounded)")
	iterCmd.Flags().StringVar(&iterHi, "hi", "", "exclusive upper bound (default: unbounded)")
}
