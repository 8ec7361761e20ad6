// Package main is the taskkeeper binary: the HTTP API server plus the
// operator commands for migrations and administrator promotion.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
