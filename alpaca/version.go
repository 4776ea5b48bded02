package alpaca

import (
	"runtime/debug"
	"strings"
	"sync"
)

const repoName = "github.com/alpacahq/alpaca-api-client-go"

var (
	goVersion     string
	moduleVersion string
	once          = sync.Once{}
)

// GetVersion returns running go version and alpaca-api-client-go version
func GetVersion() (string, string) {
	once.Do(func() {
		buildInfo, found := debug.ReadBuildInfo()
		if !found {
			return
		}
		goVersion = buildInfo.GoVersion

		if buildInfo.Main.Path == repoName {
			moduleVersion = buildInfo.Main.Version
			return
		}
		for _, dep := range buildInfo.Deps {
			if strings.HasPrefix(dep.Path, repoName) {
				moduleVersion = dep.Version
				return
			}
		}
	})
	return goVersion, moduleVersion
}

// Version returns the User-Agent sent when dialing the stream endpoints.
func Version() string {
	gv, mv := GetVersion()
	if mv == "" {
		mv = "(devel)"
	}
	ua := "alpaca-api-client-go/" + mv
	if gv != "" {
		ua += " " + gv
	}
	return ua
}
