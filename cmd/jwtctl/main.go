package main

import (
	"os"

	"github.com/critjwt/jwt/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
