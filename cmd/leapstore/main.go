// Command leapstore is the operational CLI for the leapstore
// persistence engine.
package main

import (
	"os"

	"github.com/leapstack-labs/leapstore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
