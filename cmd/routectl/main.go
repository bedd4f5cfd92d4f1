// Command routectl drives a delivery session from the terminal using the
// same store and routing configuration as the API server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
