package main

import "github.com/roadwise/hoswatch/internal/cli"

func main() {
	cli.Execute()
}
