package main

import "github.com/firebreak-sh/firebreak/internal/cli"

func main() {
	cli.Execute()
}
