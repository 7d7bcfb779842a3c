package main

import (
	"fmt"
	"os"

	"timesheet-admin/internal/cli"
	"timesheet-admin/internal/config"
)

func main() {
	root := cli.NewRootCommand(config.NewLoader(), cli.NewApp)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
