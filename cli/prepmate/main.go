package main

import (
	"os"

	prepmatecmder "github.com/prepmate/prepmate/cmd/prepmate"
)

func main() {
	cmd := prepmatecmder.NewPrepmateCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
