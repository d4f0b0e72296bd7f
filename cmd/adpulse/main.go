package main

import (
	"os"

	"github.com/adpulse/adpulse/cmd/adpulse/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
