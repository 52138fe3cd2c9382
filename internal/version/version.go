// Package version reports build metadata. The variables are set at link time:
//
//	go build -ldflags "-X gatewayapi/internal/version.Version=1.2.0 -X gatewayapi/internal/version.Commit=$(git rev-parse HEAD)"
package version

import goversion "github.com/caarlos0/go-version"

var (
	Version   = ""
	Commit    = ""
	TreeState = ""
	Date      = ""
	BuiltBy   = ""
)

// Get returns build information for the running binary. Link-time values
// override what the Go toolchain embedded.
func Get(name string) goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails(name, "Authenticated API gateway", ""),
		func(i *goversion.Info) {
			if Version != "" {
				i.GitVersion = Version
			}
			if Commit != "" {
				i.GitCommit = Commit
			}
			if TreeState != "" {
				i.GitTreeState = TreeState
			}
			if Date != "" {
				i.BuildDate = Date
			}
			if BuiltBy != "" {
				i.BuiltBy = BuiltBy
			}
		},
	)
}
