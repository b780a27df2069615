package main

import "github.com/lumen-dev/lumen-installer/cmd/lumen-install/cmd"

func main() {
	cmd.Execute()
}
