package main

import "dconn.dev/portfolio/internal/cli"

func main() {
	cli.Execute()
}
