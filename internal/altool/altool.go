// Package altool validates and uploads packages to App Store Connect.
package altool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/cabinetapp/autobuild/internal/config"
	"github.com/cabinetapp/autobuild/internal/shellx"
	"howett.net/plist"
)

const (
	validateApp = "--validate-app"
	uploadApp   = "--upload-app"
)

// Result is altool's --output-format xml answer.
type Result struct {
	SuccessMessage string         `plist:"success-message"`
	ProductErrors  []ProductIssue `plist:"product-errors"`
	ToolVersion    string         `plist:"tool-version"`
	OSVersion      string         `plist:"os-version"`
}

// ProductIssue is one entry of product-errors.
type ProductIssue struct {
	Code    int    `plist:"code"`
	Message string `plist:"message"`
}

// ProductError is returned when altool reports product-errors.
type ProductError struct {
	Action string
	Issues []ProductIssue
}

func (e *ProductError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		msgs = append(msgs, issue.Message)
	}
	return fmt.Sprintf("altool %s: %s", e.Action, strings.Join(msgs, "; "))
}

// ParseOutput decodes the XML property list in altool's output. Text before
// the plist, such as log lines on stderr, is skipped. Output without a plist
// yields a nil Result.
func ParseOutput(output []byte) (*Result, error) {
	start := bytes.Index(output, []byte("<?xml"))
	if start < 0 {
		start = bytes.Index(output, []byte("<plist"))
	}
	if start < 0 {
		return nil, nil
	}
	var res Result
	if _, err := plist.Unmarshal(output[start:], &res); err != nil {
		return nil, fmt.Errorf("parse altool output: %w", err)
	}
	return &res, nil
}

// Client runs altool twice: validate, then upload.
type Client struct {
	Config config.AppStoreConnect
	Logger log.Interface

	// Stream OPTIONALLY receives altool's output as it runs.
	Stream io.Writer

	// Step OPTIONALLY wraps each blocking step, e.g. to show a spinner.
	Step func(title string, fn func() error) error
}

// Upload validates the package and, if validation passed, uploads it.
func (c *Client) Upload(ctx context.Context, ipaPath string) (*Result, error) {
	if _, err := os.Stat(ipaPath); err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}

	var res *Result
	for _, action := range []string{validateApp, uploadApp} {
		var err error
		run := func() error {
			res, err = c.run(ctx, action, ipaPath)
			return err
		}
		if c.Step != nil {
			err = c.Step(title(action), run)
		} else {
			c.Logger.Info(strings.TrimSuffix(title(action), "…"))
			err = run()
		}
		if err != nil {
			return nil, err
		}
		if res != nil && res.SuccessMessage != "" {
			c.Logger.Info(res.SuccessMessage)
		}
	}
	return res, nil
}

func title(action string) string {
	if action == validateApp {
		return "Validating with App Store Connect…"
	}
	return "Uploading to App Store Connect…"
}

func (c *Client) run(ctx context.Context, action, ipaPath string) (*Result, error) {
	argv, err := shellx.ParseCommandLine(c.Config.Altool,
		action,
		"-f", ipaPath,
		"-u", c.Config.Username,
		"-p", c.Config.Password,
		"--output-format", "xml",
	)
	if err != nil {
		return nil, fmt.Errorf("altool command %q: %w", c.Config.Altool, err)
	}

	cfg := &shellx.Config{
		Logger: c.Logger,
		Stream: c.Stream,
		Redact: []string{c.Config.Password},
	}
	out, runErr := shellx.Run(ctx, cfg, argv)

	var output []byte
	var exitErr *shellx.ExitError
	switch {
	case out != nil:
		output = out.Output
	case errors.As(runErr, &exitErr):
		output = exitErr.Output
	}

	res, parseErr := ParseOutput(output)
	if res != nil && len(res.ProductErrors) > 0 {
		return nil, &ProductError{Action: strings.TrimPrefix(action, "--"), Issues: res.ProductErrors}
	}
	if runErr != nil {
		return nil, fmt.Errorf("altool %s: %w", strings.TrimPrefix(action, "--"), runErr)
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if res == nil {
		// Exit status zero is success even when no plist was printed.
		return &Result{}, nil
	}
	return res, nil
}
