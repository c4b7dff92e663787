package library

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/OdyseeTeam/thumbgrid/formats"

	"github.com/karrick/godirwalk"
)

var thumbnailNameRe = regexp.MustCompile(`^(\d{6})` + regexp.QuoteMeta(formats.ThumbnailExt) + `$`)

type ValidationResult struct {
	Dir     string
	Present []int
	// Missing holds indices whose file is absent or not exactly one frame long.
	Missing []int
	Size    int64
}

func (vr ValidationResult) Complete() bool {
	return len(vr.Missing) == 0
}

// Validate checks that dir holds count thumbnails of frameSize bytes each.
// Files not belonging to the grid are ignored.
func Validate(dir string, count int, frameSize int64) (*ValidationResult, error) {
	vr := &ValidationResult{Dir: dir, Present: []int{}, Missing: []int{}}
	seen := make([]bool, count)

	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(fullPath string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if filepath.Clean(fullPath) != filepath.Clean(dir) {
					return godirwalk.SkipThis
				}
				return nil
			}
			m := thumbnailNameRe.FindStringSubmatch(de.Name())
			if m == nil {
				return nil
			}
			i, err := strconv.Atoi(m[1])
			if err != nil || i >= count {
				return nil
			}
			fi, err := os.Stat(fullPath)
			if err != nil {
				return err
			}
			vr.Size += fi.Size()
			if fi.Size() == frameSize {
				seen[i] = true
			} else {
				logger.Debugw("thumbnail size mismatch", "file", fullPath, "size", fi.Size(), "expected", frameSize)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	for i, ok := range seen {
		if ok {
			vr.Present = append(vr.Present, i)
		} else {
			vr.Missing = append(vr.Missing, i)
		}
	}
	return vr, nil
}
