// Package main is the entry point for the moneybird-bot server.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/moneybird-slack-bot/cmd/moneybird-bot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
