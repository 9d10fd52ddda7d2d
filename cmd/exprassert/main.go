package main

import "github.com/funvibe/exprassert/pkg/cli"

func main() {
	cli.Run()
}
