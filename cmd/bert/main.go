package main

import "github.com/easybert/easybert/internal/cli"

func main() {
	cli.Execute()
}
