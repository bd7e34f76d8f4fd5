package main

import (
	"os"

	"github.com/bainianlaoyao/potatolism/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
