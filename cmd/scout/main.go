// scout is a CLI that runs bounded connection-discovery tasks through
// external agent tools and ships the results to a vault workspace.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
