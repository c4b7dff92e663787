// Package ffbin locates and runs the ffmpeg suite binaries.
package ffbin

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

const (
	FFmpeg  = "ffmpeg"
	FFprobe = "ffprobe"
)

var ErrNotFound = errors.New("binary not found")

var fallbackDirs = []string{"/usr/local/bin", "/usr/bin", "/opt/homebrew/bin"}

// Find resolves the executable for name. An explicit path wins when it exists,
// then $PATH is searched, then a few well-known install locations.
func Find(name, explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", errors.Wrapf(ErrNotFound, "%v at %v", name, explicit)
		}
		return explicit, nil
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	for _, d := range fallbackDirs {
		p := d + "/" + name
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", errors.Wrap(ErrNotFound, name)
}

// Output holds what a finished process wrote.
type Output struct {
	Stdout, Stderr string
}

// Run executes bin with args and captures both output streams.
// A non-zero exit is returned as *exec.ExitError alongside the captured output.
func Run(ctx context.Context, bin string, args ...string) (Output, error) {
	var outb, errb bytes.Buffer

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &outb
	cmd.Stderr = &errb

	err := cmd.Run()
	return Output{Stdout: outb.String(), Stderr: strings.TrimSpace(errb.String())}, err
}
