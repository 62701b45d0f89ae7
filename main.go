package main

import (
	"github.com/visulima/packem-sub001/cli"
)

func main() {
	cli.Run()
}
