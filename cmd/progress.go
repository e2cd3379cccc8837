package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// spinnerStep runs fn while a spinner shows title.
func spinnerStep(title string, fn func() error) error {
	var stepErr error
	if spinErr := spinner.New().
		Title(title).
		Action(func() {
			stepErr = fn()
		}).
		Run(); spinErr != nil && !errors.Is(spinErr, huh.ErrUserAborted) {
		return spinErr
	}
	return stepErr
}

// uploadProgress draws a byte counter for the package upload.
func uploadProgress(out io.Writer) func(total int64) io.Writer {
	return func(total int64) io.Writer {
		return progressbar.NewOptions64(
			total,
			progressbar.OptionSetDescription("uploading"),
			progressbar.OptionSetWriter(out),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(out)
			}),
		)
	}
}
