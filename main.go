package main

import "github.com/notargets/tetpart/cmd"

func main() {
	cmd.Execute()
}
