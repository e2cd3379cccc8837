package version

// Set at build time with -ldflags "-X github.com/cabinetapp/autobuild/internal/version.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)
