package library

import (
	"github.com/c2h5oh/datasize"
	"github.com/pkg/errors"
)

// ErrNoSpace is returned by CheckSpace when the filesystem cannot hold the requested amount.
var ErrNoSpace = errors.New("not enough disk space")

// CheckSpace fails with ErrNoSpace when fewer than need bytes are free under dir.
// An unreadable filesystem is logged and not treated as a failure.
func CheckSpace(dir string, need uint64) error {
	free, err := FreeSpace(dir)
	if err != nil {
		logger.Warnw("disk space check failed, proceeding anyway", "path", dir, "err", err)
		return nil
	}
	if free < need {
		return errors.Wrapf(ErrNoSpace, "%v needs %v, %v available",
			dir, datasize.ByteSize(need).HR(), datasize.ByteSize(free).HR())
	}
	return nil
}
