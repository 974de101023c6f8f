package main

import (
	"log"
	"os"

	"github.com/pharmastock/core/cmd/api/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
