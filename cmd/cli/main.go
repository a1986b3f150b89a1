package main

import (
	"fmt"
	"os"

	"github.com/mitlibraries/ccslips/pkg/runtime/terminal"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Output:      os.Stdout,
		LogOutput:   os.Stderr,
		DotEnvFiles: []string{".env"},
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
