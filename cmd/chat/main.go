package main

import (
	"fmt"
	"os"

	"gemini-chat/internal/cli"
)

type exitCoder interface {
	ExitCode() int
}

func main() {
	if err := cli.Execute(); err != nil {
		if ec, ok := err.(exitCoder); ok {
			os.Exit(ec.ExitCode())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
