package main

import "fermata/internal/cli"

func main() {
	cli.Execute()
}
