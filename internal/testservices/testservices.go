// Package testservices builds stand-ins for the external tools so tests can run
// without ffmpeg installed.
package testservices

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type FFprobeOptions struct {
	// Duration is printed for format=duration queries. Empty makes the query fail.
	Duration string
	// Dimensions is printed for stream=width,height queries.
	Dimensions string
}

type FFmpegOptions struct {
	// FrameSize is the number of bytes written to the output file.
	FrameSize int64
	// FailAt lists seek timestamps (HH:MM:SS.mmm) for which the tool exits with 1.
	FailAt []string
	// TruncateAt lists seek timestamps for which only half a frame gets written with exit 0.
	TruncateAt []string
	// InterruptAt lists seek timestamps for which the tool sends SIGINT to its parent
	// process and then hangs until killed.
	InterruptAt []string
	// CallLog, when set, receives the argument vector of every invocation, one per line.
	CallLog string
}

// FFprobe writes a fake ffprobe into dir and returns its path.
func FFprobe(dir string, opts FFprobeOptions) (string, error) {
	durationBranch := fmt.Sprintf("echo %v", shellQuote(opts.Duration))
	if opts.Duration == "" {
		durationBranch = `echo "$1: Invalid data found when processing input" >&2; exit 1`
	}
	script := fmt.Sprintf(`#!/bin/sh
case "$*" in
*format=duration*) %v ;;
*stream=width,height*) echo %v ;;
*) echo "unexpected arguments: $*" >&2; exit 1 ;;
esac
`, durationBranch, shellQuote(opts.Dimensions))
	return writeScript(dir, "ffprobe", script)
}

// FFmpeg writes a fake ffmpeg into dir and returns its path.
// The last argument is taken as the output file.
func FFmpeg(dir string, opts FFmpegOptions) (string, error) {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("for a in \"$@\"; do out=\"$a\"; done\n")
	if opts.CallLog != "" {
		fmt.Fprintf(&b, "echo \"$*\" >> %v\n", shellQuote(opts.CallLog))
	}
	b.WriteString("case \" $* \" in\n")
	for _, ts := range opts.FailAt {
		fmt.Fprintf(&b, "*\" -ss %v \"*) echo \"simulated failure at %v\" >&2; exit 1 ;;\n", ts, ts)
	}
	for _, ts := range opts.InterruptAt {
		fmt.Fprintf(&b, "*\" -ss %v \"*) kill -INT $PPID; exec sleep 30 ;;\n", ts)
	}
	for _, ts := range opts.TruncateAt {
		fmt.Fprintf(&b, "*\" -ss %v \"*) %v; exit 0 ;;\n", ts, writeZeros(opts.FrameSize/2))
	}
	b.WriteString("esac\n")
	b.WriteString(writeZeros(opts.FrameSize) + "\n")
	return writeScript(dir, "ffmpeg", b.String())
}

func writeZeros(n int64) string {
	if n <= 0 {
		return `: > "$out"`
	}
	return fmt.Sprintf(`dd if=/dev/zero of="$out" bs=%v count=1 2>/dev/null`, n)
}

func writeScript(dir, name, script string) (string, error) {
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(script), 0755); err != nil {
		return "", err
	}
	return p, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
