package main

import "github.com/remotehunt/jobscope/cmd"

func main() {
	cmd.Execute()
}
