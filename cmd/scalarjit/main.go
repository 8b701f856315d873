// Command scalarjit compiles and runs typed scalar expressions.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/scalarjit/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
