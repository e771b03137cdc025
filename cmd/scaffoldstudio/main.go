package main

import (
	"os"

	"scaffoldstudio/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
