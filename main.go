package main

import "github.com/redactyl/dlpagent/cmd/dlpagent"

func main() { dlpagent.Execute() }
