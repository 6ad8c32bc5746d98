package main

import (
	"os"

	"github.com/ridge/flowroute/example"
)

func main() {
	example.Main(os.Args[1:])
}
