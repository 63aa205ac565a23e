package version

// Version contains the application version information.
// Set via build-time ldflags in release builds:
// go build -ldflags "-X git.home.luguber.info/inful/depmerge/internal/version.Version=v0.3.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version with its commit for `depmerge --version`.
func String() string {
	if GitCommit == "unknown" || GitCommit == "" {
		return Version
	}
	return Version + " (" + GitCommit + ")"
}
