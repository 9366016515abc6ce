package main

import (
	"github.com/teemow/gmailkit/cmd"
)

// version is set by goreleaser during build
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
