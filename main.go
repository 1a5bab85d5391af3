package main

import "github.com/demodrop/engine/cmd"

func main() {
	cmd.Execute()
}
