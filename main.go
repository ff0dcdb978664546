package main

import "github.com/relloyd/eltpipe/cmd"

func main() {
	cmd.Execute()
}
