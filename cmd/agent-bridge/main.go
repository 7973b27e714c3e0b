package main

import "github.com/devicelab-dev/agent-bridge/pkg/cli"

func main() {
	cli.Execute()
}
