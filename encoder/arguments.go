package encoder

import (
	"fmt"
	"math"

	"github.com/OdyseeTeam/thumbgrid/formats"
	"github.com/OdyseeTeam/thumbgrid/planner"
)

type Argument [2]string

// Arguments for a single-frame raw extraction.
// Input options (everything before -i) must stay in front for fast seeking.
type Arguments struct {
	inputArgs  []Argument
	outputArgs []Argument
	in, out    string
}

// FrameArguments builds ffmpeg arguments extracting the frame at job.Timestamp
// from in, scaled to res and stored as headerless BGRA in job.Output.
func FrameArguments(in string, job planner.Job, res formats.Resolution) Arguments {
	return Arguments{
		inputArgs: []Argument{
			{"hide_banner", ""},
			{"loglevel", "error"},
			{"y", ""},
			{"ss", FormatTime(job.Timestamp)},
		},
		outputArgs: []Argument{
			{"vframes", "1"},
			{"vf", fmt.Sprintf("scale=%v:%v", res.Width, res.Height)},
			{"f", formats.ContainerRaw},
			{"pix_fmt", formats.PixelFormatBGRA},
		},
		in:  in,
		out: job.Output,
	}
}

// GetStrArguments serializes ffmpeg arguments in a format suitable for exec.Command.
func (a Arguments) GetStrArguments() []string {
	strArgs := []string{}
	add := func(opts []Argument) {
		for _, v := range opts {
			strArgs = append(strArgs, "-"+v[0])
			if v[1] != "" {
				strArgs = append(strArgs, v[1])
			}
		}
	}
	add(a.inputArgs)
	strArgs = append(strArgs, "-i", a.in)
	add(a.outputArgs)
	return append(strArgs, a.out)
}

// FormatTime renders seconds as HH:MM:SS.mmm, rounded to the millisecond.
func FormatTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
