package dispatch

import (
	"fmt"
	"strings"

	"github.com/cabinetapp/autobuild/internal/xcode"
)

// Kind is the closed set of things one invocation can do.
type Kind int

const (
	Noop Kind = iota
	Build
	UploadDistribution
	UploadAppStore
)

// Operation is the resolved form of Params.
type Operation struct {
	Kind Kind

	// Build is set for Kind == Build.
	Build xcode.Request

	// SkipUpload stops a Build after the package has been exported.
	SkipUpload bool

	// Package is the existing .ipa for the upload kinds.
	Package string

	// Description is the pgyer release note.
	Description string

	// Ignored lists flags that were given but have no effect.
	Ignored []string
}

func (o Operation) String() string {
	switch o.Kind {
	case Build:
		return "build-" + o.Build.Mode.String()
	case UploadDistribution:
		return "upload-existing-to-distribution"
	case UploadAppStore:
		return "upload-existing-to-appstore"
	}
	return "no-op"
}

// ConfigError reports a flag combination that does not select exactly one
// operation.
type ConfigError struct {
	Flags  []string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid flags %s: %s", strings.Join(e.Flags, ", "), e.Reason)
}

func conflict(reason string, flags ...string) *ConfigError {
	return &ConfigError{Flags: flags, Reason: reason}
}

// Resolve validates the flag combination up front and selects the operation.
// Combinations where more than one action, or a half-specified action, would
// apply are rejected with a *ConfigError.
func Resolve(p Params) (Operation, error) {
	hasSource := p.Project != "" || p.Workspace != ""

	if p.Project != "" && p.Workspace != "" {
		return Operation{}, conflict("choose either a project or a workspace", "--project", "--workspace")
	}
	if p.AdHoc && p.AppStore {
		return Operation{}, conflict("choose either an ad-hoc or an App Store export", "--adhoc", "--appstore")
	}
	if p.Upload && p.Altool {
		return Operation{}, conflict("choose a single upload target", "--upload", "--altool")
	}

	if p.Upload || p.Altool {
		flag := "--upload"
		if p.Altool {
			flag = "--altool"
		}
		if hasSource {
			return Operation{}, conflict("uploading an existing package cannot be combined with a build; builds upload automatically unless --ipa is given",
				flag, sourceFlag(p))
		}
		if p.Output == "" {
			return Operation{}, conflict("the package to upload must be given with --output", flag)
		}
		if p.SkipUpload {
			return Operation{}, conflict("--ipa skips uploads after a build", flag, "--ipa")
		}
		op := Operation{Kind: UploadDistribution, Package: p.Output, Description: p.Description}
		if p.Altool {
			op = Operation{Kind: UploadAppStore, Package: p.Output}
			op.Ignored = ignored(op.Ignored, p.Description != "", "--description")
		}
		op.Ignored = ignored(op.Ignored, p.AdHoc, "--adhoc")
		op.Ignored = ignored(op.Ignored, p.AppStore, "--appstore")
		op.Ignored = ignored(op.Ignored, p.Clean, "--clean")
		return op, nil
	}

	if !hasSource {
		if p.Output != "" {
			return Operation{}, conflict("--output needs --project, --workspace, --upload or --altool", "--output")
		}
		var op Operation
		op.Ignored = ignored(op.Ignored, p.AdHoc, "--adhoc")
		op.Ignored = ignored(op.Ignored, p.AppStore, "--appstore")
		op.Ignored = ignored(op.Ignored, p.SkipUpload, "--ipa")
		op.Ignored = ignored(op.Ignored, p.Description != "", "--description")
		op.Ignored = ignored(op.Ignored, p.Clean, "--clean")
		return op, nil
	}

	if p.Output == "" {
		return Operation{}, conflict("builds need an output directory", sourceFlag(p), "--output")
	}
	if !p.AdHoc && !p.AppStore {
		return Operation{}, conflict("builds need --adhoc or --appstore", sourceFlag(p))
	}

	src := xcode.Source{Kind: xcode.Project, Path: p.Project}
	if p.Project == "" {
		src = xcode.Source{Kind: xcode.Workspace, Path: p.Workspace}
	}
	mode := xcode.AdHoc
	if !p.AdHoc {
		mode = xcode.AppStore
	}

	op := Operation{
		Kind: Build,
		Build: xcode.Request{
			Source:    src,
			Mode:      mode,
			OutputDir: p.Output,
			Clean:     p.Clean,
		},
		SkipUpload: p.SkipUpload,
	}
	if mode == xcode.AdHoc && !p.SkipUpload {
		op.Description = p.Description
	} else {
		op.Ignored = ignored(op.Ignored, p.Description != "", "--description")
	}
	return op, nil
}

func sourceFlag(p Params) string {
	if p.Project != "" {
		return "--project"
	}
	return "--workspace"
}

func ignored(list []string, given bool, flag string) []string {
	if given {
		return append(list, flag)
	}
	return list
}
