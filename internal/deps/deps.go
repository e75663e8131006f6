package deps

import (
	"os/exec"
	"runtime"

	"github.com/nicobailon/mediasection/internal/shell"
)

type Dependency struct {
	Name       string
	Command    string
	Required   bool
	InstallCmd map[string]string
}

type MissingDep struct {
	Dependency
}

var lookPath = exec.LookPath

// dependencies lists external binaries for goos. Only the URL opener is
// used, for navigation; without it URLs are printed instead.
func dependencies(goos string) []Dependency {
	opener, _ := shell.OpenCommand(goos)
	return []Dependency{
		{
			Name:     "browser opener",
			Command:  opener,
			Required: false,
			InstallCmd: map[string]string{
				"linux": "sudo apt install xdg-utils",
			},
		},
	}
}

func Check() []MissingDep {
	missing := []MissingDep{}
	for _, dep := range dependencies(runtime.GOOS) {
		if _, err := lookPath(dep.Command); err != nil {
			missing = append(missing, MissingDep{dep})
		}
	}
	return missing
}

// HasRequired reports whether any missing dependency is required.
func HasRequired(missing []MissingDep) bool {
	for _, m := range missing {
		if m.Required {
			return true
		}
	}
	return false
}

func InstallHint(dep MissingDep) string {
	goos := runtime.GOOS
	if cmd, ok := dep.InstallCmd[goos]; ok {
		return cmd
	}
	return "install " + dep.Command + " via your package manager"
}
