// cmd/ogc/main.go
//
// Entry point for the ogc CLI. Every command returns its error up to here;
// this is the only place that turns a failure into exit code 1.

package main

import (
	"context"
	"os"

	"github.com/kingrea/ogc/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
