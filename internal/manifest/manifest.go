// Package manifest describes a timeline arrangement in YAML.
//
//	duration: 30s
//	tracks:
//	  - name: drums
//	    volume: 0.8
//	    resolve: shift
//	    clips:
//	      - path: loops/beat.wav
//	        start: 1.5s
//	        trimStart: 250ms
//
// Relative clip paths are resolved against the manifest directory.
package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pipelined/timeline/conflict"
	"github.com/pipelined/timeline/project"
	"github.com/pipelined/timeline/track"
)

type (
	// Manifest is an arrangement of tracks.
	Manifest struct {
		Duration time.Duration `yaml:",omitempty"`
		Tracks   []Track

		dir string
	}

	// Track is a manifest track.
	Track struct {
		Name   string
		Volume *float64 `yaml:",omitempty"`
		Muted  bool     `yaml:",omitempty"`
		// Resolve is a conflict strategy applied after clips are placed.
		Resolve string `yaml:",omitempty"`
		Clips   []Clip
	}

	// Clip is a manifest clip.
	Clip struct {
		Path      string
		Name      string        `yaml:",omitempty"`
		Start     time.Duration `yaml:",omitempty"`
		Volume    *float64      `yaml:",omitempty"`
		TrimStart time.Duration `yaml:"trimStart,omitempty"`
		TrimEnd   time.Duration `yaml:"trimEnd,omitempty"`
	}
)

// Load reads manifest from the file.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open manifest: %w", err)
	}
	defer f.Close()
	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// Parse decodes manifest and validates it.
func Parse(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil && err != io.EOF {
		return nil, fmt.Errorf("cannot decode manifest: %w", err)
	}
	for i, t := range m.Tracks {
		if t.Resolve != "" {
			if _, err := conflict.ParseStrategy(t.Resolve); err != nil {
				return nil, fmt.Errorf("track %d: %w", i, err)
			}
		}
		for j, c := range t.Clips {
			if c.Path == "" {
				return nil, fmt.Errorf("track %d clip %d: empty path", i, j)
			}
			if c.Start < 0 || c.TrimStart < 0 || c.TrimEnd < 0 {
				return nil, fmt.Errorf("track %d clip %d: negative time", i, j)
			}
		}
	}
	return &m, nil
}

// Apply adds tracks and clips of the manifest to the project.
func (m *Manifest) Apply(p *project.Project) error {
	for _, mt := range m.Tracks {
		t := track.New(mt.Name)
		if mt.Volume != nil {
			t.Volume = *mt.Volume
		}
		t.Muted = mt.Muted
		index := p.AddTrack(t)
		for _, mc := range mt.Clips {
			c, err := p.AddAudioClip(index, m.path(mc.Path), mc.Start, mc.Name)
			if err != nil {
				return err
			}
			p.Edit(func([]*track.Track) {
				if mc.Volume != nil {
					c.Volume = *mc.Volume
				}
				c.TrimLeft(mc.TrimStart)
				c.TrimRight(mc.TrimEnd)
				c.UpdateEndTime()
			})
		}
		if mt.Resolve != "" {
			strategy, _ := conflict.ParseStrategy(mt.Resolve)
			if _, err := p.AutoResolveTrack(index, strategy); err != nil {
				return err
			}
		}
	}
	if extra := m.Duration - p.Duration(); extra > 0 {
		p.AddDuration(extra)
	}
	return nil
}

func (m *Manifest) path(path string) string {
	if filepath.IsAbs(path) || m.dir == "" {
		return path
	}
	return filepath.Join(m.dir, path)
}
