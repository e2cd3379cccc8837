// Package preflight reports whether the machine can build and upload, and
// which Xcode sources it can find.
package preflight

import (
	"fmt"
	"io"

	"github.com/cabinetapp/autobuild/internal/config"
	"github.com/cabinetapp/autobuild/internal/shellx"
	"github.com/cabinetapp/autobuild/internal/term"
	"github.com/google/shlex"
)

// Tools tells which external programs are available.
type Tools struct {
	Xcodebuild bool
	Altool     bool
}

// CheckTools looks up xcodebuild and the configured altool command line.
func CheckTools(cfg config.Config) Tools {
	return Tools{
		Xcodebuild: commandExists("xcodebuild"),
		Altool:     altoolExists(cfg.AppStoreConnect.Altool),
	}
}

// PrintTools prints one check line per tool. Missing tools are not an
// error: an invocation may need neither.
func PrintTools(out io.Writer, theme term.Theme, cfg config.Config, tools Tools) {
	fmt.Fprintln(out, theme.Section("Prerequisites"))
	printCheck(out, theme, "xcodebuild", tools.Xcodebuild)
	printCheck(out, theme, cfg.AppStoreConnect.Altool, tools.Altool)
	if !tools.Xcodebuild {
		fmt.Fprintln(out, theme.Muted("  install Xcode Command Line Tools with: xcode-select --install"))
	}
	fmt.Fprintln(out)
}

func printCheck(out io.Writer, theme term.Theme, name string, ok bool) {
	if ok {
		fmt.Fprintf(out, "  %s %s\n", theme.Success("✓"), name)
	} else {
		fmt.Fprintf(out, "  %s %s\n", theme.Muted("✗"), name)
	}
}

func commandExists(name string) bool {
	_, err := shellx.Library.LookPath(name)
	return err == nil
}

// altoolExists checks the program of a command line such as "xcrun altool".
func altoolExists(cmdline string) bool {
	words, err := shlex.Split(cmdline)
	if err != nil || len(words) == 0 {
		return false
	}
	return commandExists(words[0])
}
