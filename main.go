package main

import "github.com/snapbooth/identity/cmd"

func main() {
	cmd.Execute()
}
