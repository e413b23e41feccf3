package main

import (
	"os"

	"tradehook/cmd/tradehook/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
