package main

import (
	"os"

	"github.com/smadhas/BIDFeeder/cmd"
)

func main() {
	if err := cmd.RootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
