// BioClick - desktop bridge for one-click BLAST sequence analysis.
package main

import (
	"os"

	"github.com/bioclick/bioclick/internal/cli"
	"github.com/bioclick/bioclick/internal/version"
)

// Version information, overridden by the Makefile via LDFLAGS.
var (
	Version   = "v1.2.0"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
	if code := cli.ExitCode(); code != 0 {
		os.Exit(code)
	}
}
