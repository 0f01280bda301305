package main

import (
	"os"

	"github.com/leadsourcer/leadsourcer/cmd/commands"
)

func main() {
	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
