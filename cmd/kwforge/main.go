// kwforge - KeywordForge CSV uploader and processing monitor.
package main

import (
	"os"

	"github.com/keywordforge/kwforge/internal/cli"
	"github.com/keywordforge/kwforge/internal/version"
)

// Version information, overridden by ldflags in release builds:
//
//	go build -ldflags "-X main.Version=v1.2.0 -X main.BuildTime=..."
var (
	Version   = "v1.2.0-dev"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
