package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/cabinetapp/autobuild/internal/config"
	"github.com/cabinetapp/autobuild/internal/dispatch"
	"github.com/cabinetapp/autobuild/internal/pgyer"
	"github.com/cabinetapp/autobuild/internal/preflight"
	"github.com/cabinetapp/autobuild/internal/term"
)

// printEnvironment is what a bare invocation shows: the tools, the sources
// under the current directory and the effective configuration.
func printEnvironment(out io.Writer, theme term.Theme, cfg config.Config) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, theme.Title("autobuild"))
	fmt.Fprintln(out, theme.Muted("Nothing to do. Pass -p or -w with -o to build, or -o with -u or -a to upload."))
	fmt.Fprintln(out)

	preflight.PrintTools(out, theme, cfg, preflight.CheckTools(cfg))

	fmt.Fprintln(out, theme.Section("Sources"))
	sources := preflight.DetectSources(".")
	if len(sources) == 0 {
		fmt.Fprintln(out, theme.Muted("  no .xcodeproj or .xcworkspace found"))
	}
	for _, src := range sources {
		team, _ := preflight.DetectTeamID(src)
		theme.KV(out, src, team)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, theme.Section("Configuration"))
	theme.KV(out, "Scheme", cfg.Scheme)
	theme.KV(out, "Configuration", cfg.Configuration)
	theme.KV(out, "SDK", cfg.SDK)
	theme.KV(out, "Identity", cfg.CodeSignIdentity)
	theme.KV(out, "Ad-hoc", cfg.AdHoc.ProvisioningProfile)
	theme.KV(out, "App Store", cfg.AppStore.ProvisioningProfile)
	theme.KV(out, "pgyer", cfg.Pgyer.UploadURL)
	theme.KV(out, "altool", cfg.AppStoreConnect.Altool)
}

func printOutcome(out io.Writer, theme term.Theme, cfg config.Config, outcome *dispatch.Outcome) {
	if outcome == nil {
		return
	}
	if a := outcome.Artifacts; a != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.Section("Build"))
		theme.KV(out, "Scheme", cfg.Scheme)
		theme.KV(out, "Mode", outcome.Operation.Build.Mode.String())
		theme.KV(out, "Package", a.PackagePath)
		if outcome.Operation.Build.Clean {
			theme.KV(out, "Archive", "removed")
		} else {
			theme.KV(out, "Archive", a.ArchivePath)
		}
	}
	if r := outcome.Distribution; r != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.Success("Upload Success"))
		fmt.Fprintf(out, "  %s %s\n", theme.Label("Download:"), theme.Link(r.DownloadURL))
	}
	if r := outcome.AppStore; r != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.Success("App Store Connect upload succeeded"))
		if r.SuccessMessage != "" {
			fmt.Fprintln(out, theme.Muted("  "+r.SuccessMessage))
		}
	}
}

// printFailure prints the legacy pgyer status lines. Other errors are
// reported by main.
func printFailure(out io.Writer, theme term.Theme, err error) {
	var serviceErr *pgyer.ServiceError
	var statusErr *pgyer.HTTPStatusError
	switch {
	case errors.As(err, &serviceErr):
		fmt.Fprintln(out, theme.Error("Upload Fail!"))
	case errors.As(err, &statusErr):
		fmt.Fprintln(out, theme.Error(fmt.Sprintf("HTTPError, Code: %d", statusErr.StatusCode)))
	}
}
