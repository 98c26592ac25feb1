package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set via ldflags, e.g. -X go.jacobcolvin.com/onnxprof/version.Version=v1.2.0.
var (
	Version   string
	Branch    string
	BuildUser string
	BuildDate string
)

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"             yaml:"version"`
	Revision  string `json:"revision"            yaml:"revision"`
	Branch    string `json:"branch,omitempty"    yaml:"branch,omitempty"`
	BuildUser string `json:"buildUser,omitempty" yaml:"buildUser,omitempty"`
	BuildDate string `json:"buildDate,omitempty" yaml:"buildDate,omitempty"`
	GoVersion string `json:"goVersion"           yaml:"goVersion"`
	Platform  string `json:"platform"            yaml:"platform"`
}

// Get collects build information. Values not set via ldflags fall back to the
// module build info embedded by the Go toolchain.
func Get() Info {
	info := Info{
		Version:   Version,
		Revision:  "unknown",
		Branch:    Branch,
		BuildUser: BuildUser,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info.withDefaults()
	}

	if info.Version == "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	modified := false

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.time":
			if info.BuildDate == "" {
				info.BuildDate = s.Value
			}
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	if modified {
		info.Revision += "-dirty"
	}

	return info.withDefaults()
}

func (i Info) withDefaults() Info {
	if i.Version == "" {
		i.Version = "devel"
	}

	return i
}

// String renders the info as a single line.
func (i Info) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "onnxprof %s (%s", i.Version, i.Revision)

	if i.Branch != "" {
		fmt.Fprintf(&b, ", %s", i.Branch)
	}

	if i.BuildDate != "" {
		fmt.Fprintf(&b, ", built %s", i.BuildDate)
	}

	if i.BuildUser != "" {
		fmt.Fprintf(&b, " by %s", i.BuildUser)
	}

	fmt.Fprintf(&b, ") %s %s", i.GoVersion, i.Platform)

	return b.String()
}
