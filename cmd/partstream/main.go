package main

import "github.com/killallgit/partstream/cmd"

func main() {
	cmd.Execute()
}
