package xcode

import (
	"fmt"
	"os"

	"howett.net/plist"
)

// ExportOptions is the subset of an -exportOptionsPlist file autobuild reads.
type ExportOptions struct {
	Method               string            `plist:"method"`
	TeamID               string            `plist:"teamID"`
	SigningStyle         string            `plist:"signingStyle"`
	ProvisioningProfiles map[string]string `plist:"provisioningProfiles"`
}

// ReadExportOptions decodes the export options property list at path.
func ReadExportOptions(path string) (*ExportOptions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("export options: %w", err)
	}
	defer f.Close()

	var opts ExportOptions
	if err := plist.NewDecoder(f).Decode(&opts); err != nil {
		return nil, fmt.Errorf("export options %s: %w", path, err)
	}
	return &opts, nil
}

// Supports reports whether the export method fits mode. Newer Xcode versions
// renamed ad-hoc to release-testing and app-store to app-store-connect.
func (o *ExportOptions) Supports(mode Mode) bool {
	switch mode {
	case AdHoc:
		return o.Method == "ad-hoc" || o.Method == "release-testing"
	case AppStore:
		return o.Method == "app-store" || o.Method == "app-store-connect"
	}
	return false
}
