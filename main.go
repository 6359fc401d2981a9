package main

import "mockinterview/internal/cli"

func main() {
	cli.Execute()
}
