package main

import (
	"os"

	"github.com/bellavista-care-home/bellavista-carehome-sub000/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
