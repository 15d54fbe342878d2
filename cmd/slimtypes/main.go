package main

import (
	"os"

	"github.com/oapi-codegen/slimtypes/internal/cli/commands"
)

func main() {
	if err := commands.Execute(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
