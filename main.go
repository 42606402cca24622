package main

import "github.com/crystaldolphin/orchestrator/cmd"

func main() {
	cmd.Execute()
}
