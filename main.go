package main

import (
	"os"

	"github.com/cotandem/kai/cmd"
	"github.com/cotandem/kai/pkg/version"
)

var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

func main() {
	version.Set(buildVersion, buildCommit, buildDate)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
