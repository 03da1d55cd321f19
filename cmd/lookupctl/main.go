// Command lookupctl runs registry and caller-ID lookups from a terminal using
// the same configuration as the server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		os.Exit(1)
	}
}
