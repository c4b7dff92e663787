package formats

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit(t *testing.T) {
	cases := []struct {
		orig, bound, expected Resolution
	}{
		{Resolution{1920, 1080}, Thumb200, Resolution{200, 112}},
		{Resolution{1080, 1920}, Thumb200, Resolution{112, 200}},
		{Resolution{3840, 2160}, Thumb200, Resolution{200, 112}},
		{Resolution{640, 480}, Thumb200, Resolution{200, 150}},
		{Resolution{200, 200}, Thumb200, Resolution{200, 200}},
		{Resolution{160, 90}, Thumb200, Resolution{160, 90}},
		{Resolution{1920, 1080}, Thumb320, Resolution{320, 180}},
		{Resolution{10000, 2}, Thumb200, Resolution{200, 1}},
	}
	for _, c := range cases {
		t.Run(c.orig.String(), func(t *testing.T) {
			assert.Equal(t, c.expected, Fit(c.orig, c.bound))
		})
	}
}

func TestFitBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := 0; i < 5000; i++ {
		orig := Resolution{rng.Intn(7680) + 1, rng.Intn(4320) + 1}
		bound := Resolution{rng.Intn(640) + 1, rng.Intn(640) + 1}
		out := Fit(orig, bound)

		require.True(t, out.Valid(), "%v in %v", orig, bound)
		require.LessOrEqual(t, out.Width, bound.Width, "%v in %v", orig, bound)
		require.LessOrEqual(t, out.Height, bound.Height, "%v in %v", orig, bound)
		require.LessOrEqual(t, out.Width, orig.Width, "%v in %v", orig, bound)
		require.LessOrEqual(t, out.Height, orig.Height, "%v in %v", orig, bound)

		if out.Width == 1 || out.Height == 1 {
			continue
		}
		// Truncation moves each side by less than a pixel, so the cross products
		// differ by less than the sum of the source sides.
		skew := out.Width*orig.Height - out.Height*orig.Width
		if skew < 0 {
			skew = -skew
		}
		require.Less(t, skew, orig.Width+orig.Height, "%v in %v -> %v", orig, bound, out)
	}
}

func TestScaleFactorNeverUpscales(t *testing.T) {
	assert.Equal(t, 1.0, ScaleFactor(Resolution{20, 10}, Thumb200))
	assert.InDelta(t, 0.1042, ScaleFactor(Resolution{1920, 1080}, Thumb200), 0.0001)
}

func TestFrameSize(t *testing.T) {
	assert.EqualValues(t, 89600, Resolution{200, 112}.FrameSize())
	assert.Equal(t, "200x112", Resolution{200, 112}.String())
	assert.False(t, Resolution{0, 112}.Valid())
}
