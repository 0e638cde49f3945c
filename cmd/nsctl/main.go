// Package main is the entrypoint of nsctl, the Go2NetSentry operator CLI.
package main

import "Go2NetSentry/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
