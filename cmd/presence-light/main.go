package main

import "github.com/oshokin/presence-light/cmd/presence-light/cmd"

func main() {
	cmd.Execute()
}
