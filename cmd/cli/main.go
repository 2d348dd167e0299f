package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/betslib/feedsync/cmd/cli/commands"
)

func main() {
	_ = godotenv.Load()

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
