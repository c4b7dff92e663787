//go:build !linux && !darwin

package library

import "github.com/pkg/errors"

func FreeSpace(path string) (uint64, error) {
	return 0, errors.New("free space check is not supported on this platform")
}
