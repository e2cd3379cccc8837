// Package shellx runs the external Apple tools autobuild drives.
//
// Every command is awaited before Run returns, its combined output is
// captured, and a non-zero exit becomes an *ExitError so that callers can
// decide whether the pipeline continues.
package shellx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/google/shlex"
	"golang.org/x/sys/execabs"
)

// Dependencies is the library on which this package depends.
type Dependencies interface {
	// CmdRun is equivalent to calling c.Run.
	CmdRun(c *execabs.Cmd) error

	// LookPath is equivalent to calling execabs.LookPath.
	LookPath(file string) (string, error)
}

// Library contains the default dependencies. Tests replace it.
var Library Dependencies = &StdlibDependencies{}

// StdlibDependencies contains the stdlib implementation of [Dependencies].
type StdlibDependencies struct{}

// CmdRun implements [Dependencies].
func (*StdlibDependencies) CmdRun(c *execabs.Cmd) error {
	return c.Run()
}

// LookPath implements [Dependencies].
func (*StdlibDependencies) LookPath(file string) (string, error) {
	return execabs.LookPath(file)
}

// ErrNoCommandToExecute means that the command line is empty.
var ErrNoCommandToExecute = errors.New("shellx: no command to execute")

// Argv contains the complete argv.
type Argv struct {
	// P is the MANDATORY program to execute.
	P string

	// V contains the OPTIONAL arguments.
	V []string
}

// NewArgv resolves command in PATH and creates a new [Argv].
func NewArgv(command string, args ...string) (*Argv, error) {
	fullpath, err := Library.LookPath(command)
	if err != nil {
		return nil, err
	}
	return &Argv{P: fullpath, V: args}, nil
}

// ParseCommandLine splits a shell-like command line such as
// `/Applications/Application\ Loader.app/.../altool` and appends args.
func ParseCommandLine(cmdline string, args ...string) (*Argv, error) {
	words, err := shlex.Split(cmdline)
	if err != nil {
		return nil, err
	}
	if len(words) < 1 {
		return nil, ErrNoCommandToExecute
	}
	argv, err := NewArgv(words[0], words[1:]...)
	if err != nil {
		return nil, err
	}
	argv.Append(args...)
	return argv, nil
}

// Append appends arguments to the command line.
func (a *Argv) Append(args ...string) {
	a.V = append(a.V, args...)
}

// Slice returns the program followed by its arguments.
func (a *Argv) Slice() []string {
	return append([]string{a.P}, a.V...)
}

// Name is the base name of the program, used in messages.
func (a *Argv) Name() string {
	return filepath.Base(a.P)
}

// Config contains config for executing programs.
type Config struct {
	// Logger is the OPTIONAL logger to use.
	Logger log.Interface

	// Stream OPTIONALLY receives the child's stdout and stderr while it runs.
	Stream io.Writer

	// Redact lists OPTIONAL values masked when logging the command line.
	Redact []string
}

// Result is the outcome of a command that exited with status zero.
type Result struct {
	Argv   []string
	Output []byte
}

// ExitError is returned when a command fails to start or exits non-zero.
type ExitError struct {
	Argv   []string
	Code   int // -1 when the process did not run to completion
	Output []byte
	Err    error
}

func (e *ExitError) Error() string {
	name := filepath.Base(e.Argv[0])
	if e.Code >= 0 {
		return fmt.Sprintf("%s exited with status %d", name, e.Code)
	}
	return fmt.Sprintf("%s: %v", name, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Tail returns at most the last n lines of the captured output.
func (e *ExitError) Tail(n int) string {
	return Tail(e.Output, n)
}

// Run executes argv and waits for it to exit.
func Run(ctx context.Context, config *Config, argv *Argv) (*Result, error) {
	var buf bytes.Buffer
	var w io.Writer = &buf
	if config.Stream != nil {
		w = io.MultiWriter(&buf, config.Stream)
	}

	cmd := execabs.CommandContext(ctx, argv.P, argv.V...)
	cmd.Stdout = w
	cmd.Stderr = w
	if config.Logger != nil {
		config.Logger.Debugf("+ %s", redact(quotedCommandLine(argv.P, argv.V...), config.Redact))
	}

	err := Library.CmdRun(cmd)
	if err == nil {
		return &Result{Argv: argv.Slice(), Output: buf.Bytes()}, nil
	}

	code := -1
	var exitErr *execabs.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return nil, &ExitError{
		Argv:   argv.Slice(),
		Code:   code,
		Output: buf.Bytes(),
		Err:    err,
	}
}

// Tail returns at most the last n lines of output.
func Tail(output []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(output), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// quotedCommandLine returns a quoted command line.
func quotedCommandLine(command string, args ...string) string {
	v := []string{maybeQuoteArg(command)}
	for _, a := range args {
		v = append(v, maybeQuoteArg(a))
	}
	return strings.Join(v, " ")
}

// maybeQuoteArg quotes a command line argument if needed.
func maybeQuoteArg(a string) string {
	if strings.Contains(a, "\"") {
		a = strings.ReplaceAll(a, "\"", "\\\"")
	}
	if strings.Contains(a, " ") {
		a = "\"" + a + "\""
	}
	return a
}

func redact(line string, secrets []string) string {
	for _, s := range secrets {
		if s != "" {
			line = strings.ReplaceAll(line, s, "********")
		}
	}
	return line
}
