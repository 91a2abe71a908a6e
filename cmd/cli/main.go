package main

import (
	"os"

	"github.com/glowcart-dev/glowcart/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
