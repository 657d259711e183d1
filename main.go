package main

import "github.com/agentic-research/enhimg/cmd"

func main() {
	cmd.Execute()
}
