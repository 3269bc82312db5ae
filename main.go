package main

import "github.com/brk3/habitboard/cmd"

func main() {
	cmd.Execute()
}
