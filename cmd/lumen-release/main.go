package main

import "github.com/lumen-dev/lumen-installer/cmd/lumen-release/cmd"

func main() {
	cmd.Execute()
}
