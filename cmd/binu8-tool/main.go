package main

import "binu8-translator/internal/cli"

func main() {
	cli.Execute()
}
