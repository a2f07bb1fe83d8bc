package main

import "github.com/raniellyferreira/respkit/cmd/respd/cmd"

func main() {
	cmd.Execute()
}
