package main

import (
	"github.com/mrlokans/shelf/internal/cli"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.Execute()
}
