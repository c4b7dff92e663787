package library

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const ManifestName = ".manifest"

// Manifest describes a generated thumbnail set so that consumers do not need
// to recompute the plan.
type Manifest struct {
	RunID      string
	Source     string
	SourceSize int64
	Duration   float64

	SourceWidth  int
	SourceHeight int
	Width        int
	Height       int
	PixelFormat  string

	Count    int
	Interval float64

	GeneratedAt time.Time
	Failed      []int `yaml:",omitempty,flow"`
}

func WriteManifest(dir string, m *Manifest) error {
	d, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return errors.Wrap(
		os.WriteFile(filepath.Join(dir, ManifestName), d, 0644),
		"cannot write manifest",
	)
}

func ReadManifest(dir string) (*Manifest, error) {
	d, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(d, m); err != nil {
		return nil, errors.Wrap(err, "cannot parse manifest")
	}
	return m, nil
}
