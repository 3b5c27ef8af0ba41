package main

import (
	"os"

	"github.com/simmerhq/simmer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
