// Command tabulary detects tables in spreadsheet-like documents and
// normalizes them against a field registry manifest.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tabulary:", err)
		os.Exit(1)
	}
}
