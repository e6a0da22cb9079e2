package main

import "deckqa/internal/cli"

func main() {
	cli.Execute()
}
