// Package xcode archives and exports an iOS app with xcodebuild.
package xcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	"github.com/cabinetapp/autobuild/internal/config"
	"github.com/cabinetapp/autobuild/internal/shellx"
)

// SourceKind tells xcodebuild whether the source is a project or a workspace.
type SourceKind int

const (
	Project SourceKind = iota
	Workspace
)

func (k SourceKind) String() string {
	if k == Workspace {
		return "workspace"
	}
	return "project"
}

// Source is the .xcodeproj or .xcworkspace to build.
type Source struct {
	Kind SourceKind
	Path string
}

// Mode is the distribution channel an archive is exported for.
type Mode int

const (
	AdHoc Mode = iota
	AppStore
)

// String is also the name of the output subdirectory.
func (m Mode) String() string {
	if m == AppStore {
		return "appstore"
	}
	return "adhoc"
}

// Request describes one archive-and-export run.
type Request struct {
	Source    Source
	Mode      Mode
	OutputDir string

	// Clean removes the .xcarchive once the package has been exported.
	Clean bool
}

// Artifacts are the paths produced by a successful Build.
type Artifacts struct {
	ExportDir   string
	ArchivePath string
	PackagePath string
}

// Layout computes where a build for mode writes its files under outputDir.
func Layout(outputDir, scheme string, mode Mode) Artifacts {
	dir := filepath.Join(outputDir, mode.String())
	return Artifacts{
		ExportDir:   dir,
		ArchivePath: filepath.Join(dir, scheme+".xcarchive"),
		PackagePath: filepath.Join(dir, scheme+".ipa"),
	}
}

// ProfileFor returns the signing profile configured for mode.
func ProfileFor(cfg config.Config, mode Mode) config.Profile {
	if mode == AppStore {
		return cfg.AppStore
	}
	return cfg.AdHoc
}

// ArchiveArgs constructs the argument list for xcodebuild archive.
func ArchiveArgs(cfg config.Config, src Source, profile config.Profile, archivePath string) []string {
	args := []string{"archive", "-" + src.Kind.String(), src.Path,
		"-scheme", cfg.Scheme,
		"-configuration", cfg.Configuration,
		"-archivePath", archivePath,
	}
	if cfg.SDK != "" {
		args = append(args, "-sdk", cfg.SDK)
	}

	// Build settings go after the options
	return append(args,
		"CODE_SIGN_IDENTITY="+cfg.CodeSignIdentity,
		"PROVISIONING_PROFILE="+profile.ProvisioningProfile,
		"CODE_SIGNING_ALLOWED="+cfg.CodeSigningAllowedSetting(),
	)
}

// ExportArgs constructs the argument list for xcodebuild -exportArchive.
func ExportArgs(archivePath, exportOptions, exportDir string) []string {
	return []string{
		"-exportArchive",
		"-archivePath", archivePath,
		"-exportOptionsPlist", exportOptions,
		"-exportPath", exportDir,
	}
}

// Runner runs the archive and export steps one after the other.
type Runner struct {
	Config config.Config
	Logger log.Interface

	// Stream OPTIONALLY receives xcodebuild's output as it runs.
	Stream io.Writer

	// Step OPTIONALLY wraps each blocking step, e.g. to show a spinner.
	Step func(title string, fn func() error) error
}

// Build archives req.Source and exports the archive into a package.
func (r *Runner) Build(ctx context.Context, req Request) (*Artifacts, error) {
	if err := r.Config.ValidateBuild(); err != nil {
		return nil, err
	}
	if req.OutputDir == "" {
		return nil, errors.New("output directory is required")
	}

	profile := ProfileFor(r.Config, req.Mode)
	opts, err := ReadExportOptions(profile.ExportOptions)
	if err != nil {
		return nil, err
	}
	if !opts.Supports(req.Mode) {
		r.Logger.Warnf("export options %s use method %q, which does not look like a %s export",
			profile.ExportOptions, opts.Method, req.Mode)
	}

	out := Layout(req.OutputDir, r.Config.Scheme, req.Mode)
	r.Logger.WithFields(log.Fields{
		"source":  req.Source.Path,
		"mode":    req.Mode.String(),
		"archive": out.ArchivePath,
	}).Debug("starting build")

	archive := ArchiveArgs(r.Config, req.Source, profile, out.ArchivePath)
	if err := r.step(fmt.Sprintf("Archiving %s…", r.Config.Scheme), func() error {
		return r.xcodebuild(ctx, archive)
	}); err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	export := ExportArgs(out.ArchivePath, profile.ExportOptions, out.ExportDir)
	if err := r.step("Exporting package…", func() error {
		return r.xcodebuild(ctx, export)
	}); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	if _, err := os.Stat(out.PackagePath); err != nil {
		return nil, fmt.Errorf("export did not produce %s: %w", out.PackagePath, err)
	}

	if req.Clean {
		if err := CleanArchive(out.ArchivePath); err != nil {
			return nil, err
		}
		r.Logger.Infof("cleaned archive %s", out.ArchivePath)
	}

	return &out, nil
}

func (r *Runner) step(title string, fn func() error) error {
	if r.Step == nil {
		r.Logger.Info(strings.TrimSuffix(title, "…"))
		return fn()
	}
	return r.Step(title, fn)
}

func (r *Runner) xcodebuild(ctx context.Context, args []string) error {
	argv, err := shellx.NewArgv("xcodebuild", args...)
	if err != nil {
		return fmt.Errorf("xcodebuild not found, install Xcode Command Line Tools with: xcode-select --install: %w", err)
	}
	_, err = shellx.Run(ctx, &shellx.Config{Logger: r.Logger, Stream: r.Stream}, argv)
	return explain(err)
}

// explain turns well-known xcodebuild failures into actionable messages.
func explain(err error) error {
	var exitErr *shellx.ExitError
	if !errors.As(err, &exitErr) {
		return err
	}
	output := string(exitErr.Output)
	switch {
	case strings.Contains(output, "xcodebuild: error: The workspace"):
		return fmt.Errorf("workspace not found, check the --workspace path: %w", err)
	case strings.Contains(output, "xcodebuild: error: The project"):
		return fmt.Errorf("project not found, check the --project path: %w", err)
	case strings.Contains(output, "Scheme") && strings.Contains(output, "is not currently configured"):
		return fmt.Errorf("scheme not found, check the configured scheme: %w", err)
	case len(exitErr.Output) > 0:
		return fmt.Errorf("%w\n%s", err, exitErr.Tail(20))
	}
	return err
}

// CleanArchive removes an .xcarchive directory.
func CleanArchive(path string) error {
	if !strings.HasSuffix(path, ".xcarchive") {
		return fmt.Errorf("refusing to remove %s: not an .xcarchive", path)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("clean archive: %w", err)
	}
	return nil
}
