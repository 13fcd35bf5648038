// mockd-contract CLI - contract testing with spec-driven mocks
package main

import (
	"github.com/joho/godotenv"

	"github.com/getmockd/mockd-contract/pkg/cli"
)

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()
	cli.Execute()
}
