//go:build linux || darwin

package library

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var statfsFunc = unix.Statfs

// FreeSpace returns the number of bytes available to an unprivileged user on the
// filesystem holding path.
func FreeSpace(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := statfsFunc(path, &stat); err != nil {
		return 0, errors.Wrapf(err, "cannot stat filesystem of %v", path)
	}
	if stat.Bsize <= 0 {
		return 0, errors.Errorf("filesystem of %v reports block size %v", path, stat.Bsize)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}
