// Package main is the pro-forma command line: compute projections from
// input files, export workbooks, verify determinism and inspect the
// incentive tables.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
