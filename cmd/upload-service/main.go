// Command upload-service runs the resumable chunked-upload HTTP service.
package main

import (
	"fmt"
	"os"

	"github.com/reelverse/upload-service/cmd/upload-service/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
