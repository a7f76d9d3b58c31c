// Package appinfo defines application build informations set at link time.
package appinfo

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Pre-defined variables set by LDFLAGS like below:
//
//	go build -ldflags '-X github.com/depotworks/depot/pkg/appinfo.version=v1.0.0'
var (
	// version value from regexp capture in gitBranch or gitTag
	version = "0.1.0"
	// buildDate output from `date -u +'%Y-%m-%dT%H:%M:%SZ'`
	buildDate = "1970-01-01T00:00:00Z"
	// gitCommit output from `git rev-parse HEAD`
	gitCommit = ""
)

// Version records the application version together with build environment
// information.
type Version struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit,omitempty" yaml:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty" yaml:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty" yaml:"go_version,omitempty"`
	Platform  string `json:"platform,omitempty" yaml:"platform,omitempty"`
}

// GetVersion returns the Version of the application.
func GetVersion() Version {
	return Version{
		Version:   version,
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// ShortVersion returns the bare semantic version string. This is also the
// body of the registry "GET /version" route.
func ShortVersion() string {
	return version
}

// Write renders v to w in the given format, one of "text", "json" or "yaml".
func (v Version) Write(w io.Writer, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(w, string(data))
		return err
	default:
		_, err := fmt.Fprintf(w, "Version:    %s\nGo version: %s\nBuild date: %s\nPlatform:   %s\n",
			v.Version, v.GoVersion, v.BuildDate, v.Platform)
		return err
	}
}
