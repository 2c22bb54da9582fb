package main

import (
	"os"

	"runmeter.sh/cmd/runmeter/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
