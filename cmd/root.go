package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/cabinetapp/autobuild/internal/altool"
	"github.com/cabinetapp/autobuild/internal/config"
	"github.com/cabinetapp/autobuild/internal/dispatch"
	"github.com/cabinetapp/autobuild/internal/pgyer"
	"github.com/cabinetapp/autobuild/internal/term"
	"github.com/cabinetapp/autobuild/internal/xcode"
	"github.com/spf13/cobra"
)

type options struct {
	params     dispatch.Params
	configPath string
	verbose    bool

	// Values of the mode flags. Only their presence matters.
	ipa, adhoc, appstore, upload, altool string
}

// modeFlags selects the Params switch each mode flag sets.
var modeFlags = []struct {
	name string
	set  func(*dispatch.Params)
}{
	{"ipa", func(p *dispatch.Params) { p.SkipUpload = true }},
	{"adhoc", func(p *dispatch.Params) { p.AdHoc = true }},
	{"appstore", func(p *dispatch.Params) { p.AppStore = true }},
	{"upload", func(p *dispatch.Params) { p.Upload = true }},
	{"altool", func(p *dispatch.Params) { p.Altool = true }},
}

func NewRootCmd() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "autobuild",
		Short: "Archive, export and upload iOS builds",
		Long: `autobuild archives and exports an iOS app with xcodebuild, then uploads
the .ipa to pgyer for ad-hoc testing or to App Store Connect with altool.

Mode flags take a value, which is ignored: only their presence counts.

  autobuild -p cabinet.xcodeproj -o build -c adhoc -d "release notes"
  autobuild -w cabinet.xcworkspace -o build -e appstore -i ipa
  autobuild -o build/adhoc/cabinet.ipa -u yes
  autobuild -o build/appstore/cabinet.ipa -a yes`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, f := range modeFlags {
				if cmd.Flags().Changed(f.name) {
					f.set(&opts.params)
				}
			}
			return run(cmd, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.params.Workspace, "workspace", "w", "", "Build the workspace name.xcworkspace")
	flags.StringVarP(&opts.params.Project, "project", "p", "", "Build the project name.xcodeproj")
	flags.StringVarP(&opts.params.Output, "output", "o", "", "Output directory, or the existing .ipa with --upload/--altool")
	flags.StringVarP(&opts.ipa, "ipa", "i", "", "Archive and export the .ipa only, do not upload it")
	flags.StringVarP(&opts.adhoc, "adhoc", "c", "", "Sign and export for ad-hoc distribution")
	flags.StringVarP(&opts.appstore, "appstore", "e", "", "Sign and export for the App Store")
	flags.StringVarP(&opts.upload, "upload", "u", "", "Upload an existing .ipa to pgyer")
	flags.StringVarP(&opts.altool, "altool", "a", "", "Upload an existing .ipa to App Store Connect")
	flags.StringVarP(&opts.params.Description, "description", "d", "", "Release notes for the pgyer upload")
	flags.BoolVar(&opts.params.Clean, "clean", false, "Remove the .xcarchive after a successful export")
	flags.StringVar(&opts.configPath, "config", "", "HuJSON file overriding the built-in configuration")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug details and stream tool output")

	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return &log.Logger{Handler: cli.New(w), Level: level}
}

func run(cmd *cobra.Command, opts options) error {
	out := cmd.OutOrStdout()
	theme := term.NewTheme()
	logger := newLogger(cmd.ErrOrStderr(), opts.verbose)

	fmt.Fprintf(out, "options: %s\n", opts.params)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	op, err := dispatch.Resolve(opts.params)
	if err != nil {
		return err
	}
	for _, flag := range op.Ignored {
		logger.Warnf("%s has no effect for %s", flag, op)
	}

	if op.Kind == dispatch.Noop {
		printEnvironment(out, theme, cfg)
		return nil
	}

	interactive := isTerminal(out)
	var stream io.Writer
	if opts.verbose {
		stream = cmd.ErrOrStderr()
	}
	var step func(string, func() error) error
	if interactive && !opts.verbose {
		step = spinnerStep
	}

	distribution := pgyer.NewClient(cfg, logger)
	if interactive {
		distribution.Progress = uploadProgress(out)
	}

	disp := &dispatch.Dispatcher{
		Config: cfg,
		Logger: logger,
		Builder: &xcode.Runner{
			Config: cfg,
			Logger: logger,
			Stream: stream,
			Step:   step,
		},
		Distribution: distribution,
		AppStore: &altool.Client{
			Config: cfg.AppStoreConnect,
			Logger: logger,
			Stream: stream,
			Step:   step,
		},
	}

	outcome, err := disp.Run(cmd.Context(), op)
	printOutcome(out, theme, cfg, outcome)
	if err != nil {
		printFailure(out, theme, err)
		return err
	}
	return nil
}
