package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/pixelecho/echoframe/cmd"
)

const version = "0.1.0"

func main() {
	// fang wraps cobra with styled help, completions and --version.
	err := fang.Execute(
		context.Background(),
		cmd.NewRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	)
	if err != nil {
		os.Exit(1)
	}
}
