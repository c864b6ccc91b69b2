package main

import (
	"os"

	"github.com/sailq/rakeflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
