// Package config holds the immutable build and upload settings.
//
// The values are compiled into the binary. Secrets and signing identities can
// be injected at link time, for example:
//
//	go build -ldflags "-X github.com/cabinetapp/autobuild/internal/config.pgyerUserKey=..."
//
// and a HuJSON file passed with --config can override any field.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Link-time overridable values.
var (
	codeSignIdentity  = "Apple Distribution"
	pgyerUserKey      = ""
	pgyerAPIKey       = ""
	appStoreUsername  = ""
	appStorePassword  = ""
	altoolCommandLine = "xcrun altool"
)

// Profile selects how an archive is signed and exported for one channel.
type Profile struct {
	ProvisioningProfile string `json:"provisioningProfile"`
	ExportOptions       string `json:"exportOptions"`
}

// Pgyer configures the ad-hoc distribution service.
type Pgyer struct {
	UploadURL       string `json:"uploadURL"`
	DownloadBaseURL string `json:"downloadBaseURL"`
	UserKey         string `json:"userKey"`
	APIKey          string `json:"apiKey"`
}

// AppStoreConnect configures the altool based App Store upload.
type AppStoreConnect struct {
	// Altool is a shell-like command line, e.g. "xcrun altool" or a quoted
	// absolute path to the binary.
	Altool   string `json:"altool"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Config is built once at startup and passed by value.
type Config struct {
	Scheme             string          `json:"scheme"`
	Configuration      string          `json:"configuration"`
	SDK                string          `json:"sdk"`
	CodeSignIdentity   string          `json:"codeSignIdentity"`
	CodeSigningAllowed bool            `json:"codeSigningAllowed"`
	AdHoc              Profile         `json:"adhoc"`
	AppStore           Profile         `json:"appstore"`
	Pgyer              Pgyer           `json:"pgyer"`
	AppStoreConnect    AppStoreConnect `json:"appStoreConnect"`
	UploadTimeout      Duration        `json:"uploadTimeout"`
}

// Default returns the compiled-in configuration.
func Default() Config {
	return Config{
		Scheme:             "cabinet",
		Configuration:      "Release",
		CodeSignIdentity:   codeSignIdentity,
		CodeSigningAllowed: false,
		AdHoc: Profile{
			ProvisioningProfile: "cabinetadhocdis",
			ExportOptions:       "./ExportOptions.plist",
		},
		AppStore: Profile{
			ProvisioningProfile: "cabinetdis",
			ExportOptions:       "./Dis-ExportOptions.plist",
		},
		Pgyer: Pgyer{
			UploadURL:       "https://www.pgyer.com/apiv1/app/upload",
			DownloadBaseURL: "https://www.pgyer.com",
			UserKey:         pgyerUserKey,
			APIKey:          pgyerAPIKey,
		},
		AppStoreConnect: AppStoreConnect{
			Altool:   altoolCommandLine,
			Username: appStoreUsername,
			Password: appStorePassword,
		},
		UploadTimeout: Duration(10 * time.Minute),
	}
}

// CodeSigningAllowedSetting renders the toggle the way xcodebuild expects it.
func (c Config) CodeSigningAllowedSetting() string {
	if c.CodeSigningAllowed {
		return "YES"
	}
	return "NO"
}

// ValidateBuild checks the values needed by xcodebuild.
func (c Config) ValidateBuild() error {
	var errs []error
	if strings.TrimSpace(c.Scheme) == "" {
		errs = append(errs, fmt.Errorf("scheme is required"))
	}
	if strings.TrimSpace(c.Configuration) == "" {
		errs = append(errs, fmt.Errorf("build configuration is required"))
	}
	if strings.TrimSpace(c.CodeSignIdentity) == "" {
		errs = append(errs, fmt.Errorf("code sign identity is required"))
	}
	for name, p := range map[string]Profile{"adhoc": c.AdHoc, "appstore": c.AppStore} {
		if strings.TrimSpace(p.ProvisioningProfile) == "" {
			errs = append(errs, fmt.Errorf("%s provisioning profile is required", name))
		}
		if strings.TrimSpace(p.ExportOptions) == "" {
			errs = append(errs, fmt.Errorf("%s export options path is required", name))
		}
	}
	return errors.Join(errs...)
}

// ValidatePgyer checks the values needed to upload to pgyer.
func (c Config) ValidatePgyer() error {
	var errs []error
	if strings.TrimSpace(c.Pgyer.UploadURL) == "" {
		errs = append(errs, fmt.Errorf("pgyer upload URL is required"))
	}
	if strings.TrimSpace(c.Pgyer.DownloadBaseURL) == "" {
		errs = append(errs, fmt.Errorf("pgyer download base URL is required"))
	}
	if strings.TrimSpace(c.Pgyer.UserKey) == "" {
		errs = append(errs, fmt.Errorf("pgyer user key is not configured"))
	}
	if strings.TrimSpace(c.Pgyer.APIKey) == "" {
		errs = append(errs, fmt.Errorf("pgyer API key is not configured"))
	}
	if c.UploadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("upload timeout must be positive"))
	}
	return errors.Join(errs...)
}

// ValidateAppStore checks the values needed to run altool.
func (c Config) ValidateAppStore() error {
	var errs []error
	if strings.TrimSpace(c.AppStoreConnect.Altool) == "" {
		errs = append(errs, fmt.Errorf("altool command is required"))
	}
	if strings.TrimSpace(c.AppStoreConnect.Username) == "" {
		errs = append(errs, fmt.Errorf("App Store username is not configured"))
	}
	if strings.TrimSpace(c.AppStoreConnect.Password) == "" {
		errs = append(errs, fmt.Errorf("App Store password is not configured"))
	}
	return errors.Join(errs...)
}

// Duration is a time.Duration that reads and writes as a Go duration string.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("duration must be a string like \"10m\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
