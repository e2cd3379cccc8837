package main

import (
	"fmt"
	"os"

	"github.com/cabinetapp/autobuild/cmd"
	"github.com/cabinetapp/autobuild/internal/term"
)

func main() {
	if err := cmd.Execute(); err != nil {
		theme := term.NewTheme()
		fmt.Fprintln(os.Stderr, theme.Error(err.Error()))
		os.Exit(1)
	}
}
