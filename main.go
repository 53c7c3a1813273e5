package main

import "github.com/saltyorg/rtsweep/cmd"

func main() {
	cmd.Execute()
}
