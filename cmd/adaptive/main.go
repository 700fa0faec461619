// Package main implements the adaptive-api command: the HTTP service that
// decides exercise difficulty, plus migration, export and offline
// evaluation tools.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
