package dispatch

import (
	"context"
	"fmt"

	"github.com/apex/log"
	"github.com/cabinetapp/autobuild/internal/altool"
	"github.com/cabinetapp/autobuild/internal/config"
	"github.com/cabinetapp/autobuild/internal/pgyer"
	"github.com/cabinetapp/autobuild/internal/xcode"
)

// Builder archives and exports a package.
type Builder interface {
	Build(ctx context.Context, req xcode.Request) (*xcode.Artifacts, error)
}

// DistributionUploader posts a package to the ad-hoc distribution service.
type DistributionUploader interface {
	Upload(ctx context.Context, ipaPath, description string) (*pgyer.Result, error)
}

// AppStoreUploader validates and uploads a package to App Store Connect.
type AppStoreUploader interface {
	Upload(ctx context.Context, ipaPath string) (*altool.Result, error)
}

// Outcome collects what an operation produced.
type Outcome struct {
	Operation    Operation
	Artifacts    *xcode.Artifacts
	Distribution *pgyer.Result
	AppStore     *altool.Result
}

// Dispatcher runs a resolved Operation against its collaborators.
type Dispatcher struct {
	Config       config.Config
	Logger       log.Interface
	Builder      Builder
	Distribution DistributionUploader
	AppStore     AppStoreUploader
}

// Preflight checks that the configuration has what op needs, so that a
// missing credential is reported before a long build starts.
func (d *Dispatcher) Preflight(op Operation) error {
	switch op.Kind {
	case Build:
		if err := d.Config.ValidateBuild(); err != nil {
			return err
		}
		if op.SkipUpload {
			return nil
		}
		if op.Build.Mode == xcode.AppStore {
			return d.Config.ValidateAppStore()
		}
		return d.Config.ValidatePgyer()
	case UploadDistribution:
		return d.Config.ValidatePgyer()
	case UploadAppStore:
		return d.Config.ValidateAppStore()
	}
	return nil
}

// Run executes op. Every collaborator call is awaited before the next one.
func (d *Dispatcher) Run(ctx context.Context, op Operation) (*Outcome, error) {
	if err := d.Preflight(op); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	out := &Outcome{Operation: op}
	switch op.Kind {
	case Noop:
		d.Logger.Debug("nothing to do")
		return out, nil

	case UploadDistribution:
		res, err := d.Distribution.Upload(ctx, op.Package, op.Description)
		if err != nil {
			return nil, err
		}
		out.Distribution = res
		return out, nil

	case UploadAppStore:
		res, err := d.AppStore.Upload(ctx, op.Package)
		if err != nil {
			return nil, err
		}
		out.AppStore = res
		return out, nil

	case Build:
		arts, err := d.Builder.Build(ctx, op.Build)
		if err != nil {
			return nil, err
		}
		out.Artifacts = arts
		if op.SkipUpload {
			d.Logger.Infof("skipping upload of %s", arts.PackagePath)
			return out, nil
		}
		if op.Build.Mode == xcode.AppStore {
			res, err := d.AppStore.Upload(ctx, arts.PackagePath)
			if err != nil {
				return out, err
			}
			out.AppStore = res
			return out, nil
		}
		res, err := d.Distribution.Upload(ctx, arts.PackagePath, op.Description)
		if err != nil {
			return out, err
		}
		out.Distribution = res
		return out, nil
	}
	return nil, fmt.Errorf("unknown operation %d", op.Kind)
}
