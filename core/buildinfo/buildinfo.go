package buildinfo

// Set at build time, for example:
//
//	go build -ldflags "-X 'github.com/m3rciful/delofix/core/buildinfo.Version=v0.3.0' \
//	  -X 'github.com/m3rciful/delofix/core/buildinfo.Commit=$(git rev-parse --short HEAD)'"
var (
	// Version is the release tag.
	Version = "dev"
	// Commit is the VCS revision.
	Commit = "local"
	// Date is the RFC3339 build timestamp.
	Date = ""
)

// String renders a one-line build description.
func String() string {
	s := Version + " (" + Commit
	if Date != "" {
		s += ", " + Date
	}
	return s + ")"
}
