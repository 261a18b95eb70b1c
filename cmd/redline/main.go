package main

import "github.com/inkfell/redline/cmd/redline/cmd"

func main() {
	cmd.Execute()
}
