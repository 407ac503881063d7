// Package main provides the entry point for the cmoskb CLI.
package main

import (
	"os"

	"github.com/cmos-dev/cmoskb/cmd/cmoskb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
