// Package main is the kaiwa CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
