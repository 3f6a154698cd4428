// Package main provides the entry point for the steamsize CLI.
package main

import (
	"os"
)

func main() {
	os.Exit(exitCode(Execute()))
}
