package main

import "dareduel/cmd/cli/command"

func main() {
	command.Execute()
}
