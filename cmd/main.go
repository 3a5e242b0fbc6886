package main

import "github.com/inkbird-exporter/cmd/agent"

func main() {
	agent.Execute()
}
