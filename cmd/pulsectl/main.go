// Command pulsectl runs the correlation engine and the Pulse Score calculator from the shell.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
