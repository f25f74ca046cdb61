package main

import "github.com/seejho/etude/cmd"

func main() {
	cmd.Execute()
}
