// Package library lays out the thumbnail cache on disk.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var disallowedRe = regexp.MustCompile(`[^a-zA-Z0-9_.\-' ]`)

// Sanitize drops every character outside letters, digits, underscore, period,
// hyphen, apostrophe and space. Order of the remaining characters is preserved.
func Sanitize(s string) string {
	return disallowedRe.ReplaceAllString(s, "")
}

// Stem is the base name of p without its final extension.
// Leading dots do not start an extension, so ".hidden" stays whole.
func Stem(p string) string {
	base := filepath.Base(p)
	i := strings.LastIndex(base, ".")
	if i <= 0 || strings.Trim(base[:i], ".") == "" {
		return base
	}
	return base[:i]
}

// Key builds a cache key from a file name and its size in bytes.
func Key(name string, size int64) string {
	return fmt.Sprintf("%s-%d", Sanitize(Stem(name)), size)
}

// Cache is a root directory holding one subdirectory per video.
type Cache struct {
	root string
}

func New(root string) Cache {
	return Cache{root: root}
}

// Key derives the cache key for videoPath. The size part is 0 when the file cannot be stat'ed.
func (c Cache) Key(videoPath string) string {
	var size int64
	if fi, err := os.Stat(videoPath); err == nil {
		size = fi.Size()
	}
	return Key(videoPath, size)
}

// Dir is the thumbnail directory for videoPath.
func (c Cache) Dir(videoPath string) string {
	return filepath.Join(c.root, c.Key(videoPath))
}

// Prepare creates the thumbnail directory for videoPath and returns it.
func (c Cache) Prepare(videoPath string) (string, error) {
	dir := c.Dir(videoPath)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", err
	}
	return dir, nil
}
