package main

import "github.com/classmeta/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
