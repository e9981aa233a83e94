package main

import "pyproject-buildrequires/internal/cli"

func main() {
	cli.Execute()
}
