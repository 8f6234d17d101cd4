// Command ignitectl operates a single ignite data directory from the
// shell: put/get/del a key, scan a range, and run one-off
// compact/gc passes without waiting for the background scheduler.
package main

import (
	"fmt"
	"os"

	"github.com/ignitedb/ignite/cmd/ignitectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
