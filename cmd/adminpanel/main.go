// Command adminpanel resolves admin panel configurations and serves the
// admin actions over HTTP.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/adminpanel/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	// Commands report their own failures; anything else is a usage error.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "adminpanel:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
