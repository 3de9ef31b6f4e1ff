// Package version reports the build of the visitagg binary
package version

// BuildInfo describes one build
type BuildInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// set with -ldflags "-X 'visitagg/internal/core/version.version=v0.1.0' -X ...commit=abcd"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Info returns the build information
func Info() BuildInfo {
	return BuildInfo{Name: "visitagg", Version: version, Commit: commit, Date: date}
}

// String is the one-line form printed by -version
func (b BuildInfo) String() string {
	return b.Name + " " + b.Version + " (" + b.Commit + ", " + b.Date + ")"
}
