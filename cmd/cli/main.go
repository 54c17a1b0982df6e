// Package main is the entry point for the sentinel CLI binary.
package main

import (
	"os"

	cli "sentinel/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
