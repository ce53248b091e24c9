package main

import (
	"os"

	"github.com/stafflow/stafflow/cmd"
)

func main() {
	if err := cmd.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
