package shell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingCommander struct {
	name string
	args []string
	out  []byte
	err  error
}

func (r *recordingCommander) Run(name string, args ...string) ([]byte, error) {
	r.name, r.args = name, args
	return r.out, r.err
}

func TestOpenerUsesPlatformCommand(t *testing.T) {
	tests := map[string][]string{
		"linux":   {"xdg-open", "https://media.example.com/7/annotation/2"},
		"darwin":  {"open", "https://media.example.com/7/annotation/2"},
		"windows": {"rundll32", "url.dll,FileProtocolHandler", "https://media.example.com/7/annotation/2"},
	}
	for goos, want := range tests {
		t.Run(goos, func(t *testing.T) {
			cmd := &recordingCommander{}
			o := &Opener{Cmd: cmd, GOOS: goos}
			require.NoError(t, o.Open("https://media.example.com/7/annotation/2"))
			assert.Equal(t, want[0], cmd.name)
			assert.Equal(t, want[1:], cmd.args)
		})
	}
}

func TestOpenerWrapsFailure(t *testing.T) {
	boom := errors.New("exit status 3")
	o := &Opener{Cmd: &recordingCommander{err: boom, out: []byte("no display\n")}, GOOS: "linux"}
	err := o.Open("https://x")
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "no display")
}
