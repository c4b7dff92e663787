package formats

import (
	"fmt"
	"math"
)

const (
	// PixelFormatBGRA is the ffmpeg name of the 4-byte blue, green, red, alpha layout.
	PixelFormatBGRA = "bgra"
	// ContainerRaw makes ffmpeg write headerless frames.
	ContainerRaw = "rawvideo"
	// BytesPerPixel for BGRA.
	BytesPerPixel = 4
	// ThumbnailExt is appended to every thumbnail file name.
	ThumbnailExt = ".bgra"
)

type Resolution struct {
	Width, Height int
}

// Commonly used thumbnail bounding boxes.
var (
	Thumb200 = Resolution{Width: 200, Height: 200}
	Thumb320 = Resolution{Width: 320, Height: 180}
)

func (r Resolution) String() string {
	return fmt.Sprintf("%vx%v", r.Width, r.Height)
}

// Valid reports whether both dimensions are positive.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0
}

// FrameSize is the number of bytes one raw BGRA frame of this resolution occupies.
func (r Resolution) FrameSize() int64 {
	return int64(r.Width) * int64(r.Height) * BytesPerPixel
}

// ScaleFactor returns the largest factor that fits orig into bound, capped at 1.
func ScaleFactor(orig, bound Resolution) float64 {
	return math.Min(
		math.Min(float64(bound.Width)/float64(orig.Width), float64(bound.Height)/float64(orig.Height)),
		1,
	)
}

// Fit scales orig down to fit inside bound keeping its aspect ratio. It never upscales.
// Dimensions are truncated, a dimension that truncates to zero becomes 1.
func Fit(orig, bound Resolution) Resolution {
	scale := ScaleFactor(orig, bound)
	r := Resolution{
		Width:  int(float64(orig.Width) * scale),
		Height: int(float64(orig.Height) * scale),
	}
	if r.Width < 1 {
		r.Width = 1
	}
	if r.Height < 1 {
		r.Height = 1
	}
	return r
}
