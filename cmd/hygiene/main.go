// Package main is the entry point for the hygiene CLI.
package main

import (
	"os"

	"github.com/KshitijBharambe/hygiene/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
