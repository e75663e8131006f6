package shell

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

type Commander interface {
	Run(name string, args ...string) ([]byte, error)
}

type ExecCommander struct{}

func (e *ExecCommander) Run(name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	return cmd.CombinedOutput()
}

// OpenCommand returns the command that opens a URL in the default browser.
func OpenCommand(goos string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

// Opener opens navigation targets in the browser.
type Opener struct {
	Cmd  Commander
	GOOS string
}

func NewOpener(cmd Commander) *Opener {
	return &Opener{Cmd: cmd, GOOS: runtime.GOOS}
}

func (o *Opener) Open(url string) error {
	name, args := OpenCommand(o.GOOS)
	out, err := o.Cmd.Run(name, append(args, url)...)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %s", name, url, err, strings.TrimSpace(string(out)))
	}
	return nil
}
