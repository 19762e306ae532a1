package main

import (
	"os"

	"github.com/repolens/repolens-cli/internal/adapters/driving/cli"
)

func main() {
	os.Exit(cli.Execute())
}
