// Command docshelf catalogs household documents and finds them again.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docshelf/internal/adapters/driving/cli"
)

// Set via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	app, err := wire("")
	if err != nil {
		return err
	}
	defer app.Close()

	cli.SetVersion(version)
	cli.SetServices(app.services)
	return cli.Execute()
}
