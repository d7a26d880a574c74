package main

import (
	"github.com/tvlab/tvlab/pkg/cmd"
)

func main() {
	cmd.Execute()
}
