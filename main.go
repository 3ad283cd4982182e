package main

import (
	"os"

	"github.com/spigell/internify/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
