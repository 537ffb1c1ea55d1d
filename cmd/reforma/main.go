package main

import "reforma/internal/cli"

func main() {
	cli.Execute()
}
