// Package shellxtesting contains fakes for shellx.
package shellxtesting

import (
	"path/filepath"

	"github.com/cabinetapp/autobuild/internal/shellx"
	"golang.org/x/sys/execabs"
)

// Library implements shellx.Dependencies with mockable functions.
type Library struct {
	MockCmdRun func(c *execabs.Cmd) error

	MockLookPath func(file string) (string, error)
}

var _ shellx.Dependencies = &Library{}

// CmdRun implements shellx.Dependencies
func (lib *Library) CmdRun(c *execabs.Cmd) error {
	return lib.MockCmdRun(c)
}

// LookPath implements shellx.Dependencies
func (lib *Library) LookPath(file string) (string, error) {
	return lib.MockLookPath(file)
}

// Argv returns the command's argv with the program reduced to its base name.
func Argv(c *execabs.Cmd) []string {
	out := []string{filepath.Base(c.Path)}
	if len(c.Args) > 1 {
		out = append(out, c.Args[1:]...)
	}
	return out
}

// Recorder is a shellx.Dependencies that never executes anything. It records
// every command and replays canned output and errors by call index.
type Recorder struct {
	Argvs [][]string

	// Output is written to the command's stdout for the given call.
	Output map[int]string

	// Errors is returned from CmdRun for the given call.
	Errors map[int]error
}

var _ shellx.Dependencies = &Recorder{}

// CmdRun implements shellx.Dependencies
func (r *Recorder) CmdRun(c *execabs.Cmd) error {
	idx := len(r.Argvs)
	r.Argvs = append(r.Argvs, Argv(c))
	if out, ok := r.Output[idx]; ok && c.Stdout != nil {
		if _, err := c.Stdout.Write([]byte(out)); err != nil {
			return err
		}
	}
	return r.Errors[idx]
}

// LookPath implements shellx.Dependencies
func (r *Recorder) LookPath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	return filepath.Join("/fake/bin", file), nil
}

// WithCustomLibrary executes the given function with a custom shellx.Library.
func WithCustomLibrary(library shellx.Dependencies, fn func()) {
	prev := shellx.Library
	defer func() {
		shellx.Library = prev
	}()
	shellx.Library = library
	fn()
}
