package main

import (
	"os"

	"github.com/bimmerbailey/aura/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
