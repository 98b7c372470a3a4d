package main

import "github.com/kozaktomas/whereabouts/cmd"

func main() {
	cmd.Execute()
}
