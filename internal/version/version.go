// Package version exposes build information stamped via ldflags.
package version

var (
	// Set during the build process using ldflags
	Version   = "development"
	CommitSHA = "unknown"
	BuildTime = "unknown"
)

// String returns the full version string.
func String() string {
	return Version + " (" + CommitSHA + ") built at " + BuildTime
}
