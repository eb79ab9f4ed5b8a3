package main

import (
	"os"

	"polymarket-alert/cmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
