package main

import (
	"os"

	"github.com/noamichael/fitsgroup/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
