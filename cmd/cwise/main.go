package main

import (
	"os"

	"github.com/carbonwise/carbonwise/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
