package main

import (
	"os"

	"github.com/JPM1118/matthumb/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
