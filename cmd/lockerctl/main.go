package main

import (
	"github.com/campuslock/lockerd/internal/cli"
)

func main() {
	cli.Execute()
}
