package main

import (
	"os"

	"github.com/yegors/hamsearch/cmd/hamsearch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
