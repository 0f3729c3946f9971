package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"jsonload/internal/cli"
	"jsonload/internal/domain"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(domain.ExitPanic)
		}
	}()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(domain.ExitCodeForError(err))
	}
}
