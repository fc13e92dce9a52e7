package main

import "github.com/remember-me/care-monitor/internal/cli"

func main() {
	cli.Execute()
}
