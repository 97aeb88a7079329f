// Command annif is a command line client for the Annif REST API.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "annif: %v\n", err)
		os.Exit(1)
	}
}
