// SPDX-License-Identifier: EPL-2.0

// Command audmix plays, renders and converts audio files with the audmix
// engine.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
