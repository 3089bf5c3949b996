package main

import (
	"os"

	"github.com/soundprediction/aggrego/cmd/aggrego"
)

func main() {
	if err := aggrego.Execute(); err != nil {
		os.Exit(1)
	}
}
