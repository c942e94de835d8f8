package main

import (
	"os"

	"github.com/PREETHAM1590/waste-app/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
