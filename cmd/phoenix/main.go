package main

import (
	"fmt"
	"os"

	"github.com/tomislavmiksik/phoenix-be/cmd/phoenix/cli"
)

// Release builds stamp these with
// -ldflags "-X main.version=... -X main.commit=... -X main.date=...".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := cli.Execute(version, commit, date); err != nil {
		fmt.Fprintln(os.Stderr, "phoenix:", err)
		os.Exit(1)
	}
}
