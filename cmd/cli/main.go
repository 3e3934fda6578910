package main

import "github.com/angelospk/subgrabber/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
