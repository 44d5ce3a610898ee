package main

import "project-dependencies/internal/cli"

func main() {
	cli.Execute()
}
