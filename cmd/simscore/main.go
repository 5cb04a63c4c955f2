// Package main provides the entry point for the simscore CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/simscore/cmd/simscore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
