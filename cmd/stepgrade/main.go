// Command stepgrade grades multi-part physics solutions step by step.
package main

import (
	"os"

	"stepgrade/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:], os.Stdout, os.Stderr))
}
