// Package project persists a working session to disk as YAML. The file
// format is versioned so older files keep loading after the schema grows.
package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/beatsmith/groovebox/internal/song"
)

const currentVersion = 1

// Project is everything needed to restore a session: tempo, the three
// material layers and the mixer levels.
type Project struct {
	Version int     `yaml:"version"`
	Name    string  `yaml:"name"`
	Tempo   float64 `yaml:"tempo"`

	Pattern *patternDoc        `yaml:"pattern,omitempty"`
	Melody  *melodyDoc         `yaml:"melody,omitempty"`
	Harmony *harmonyDoc        `yaml:"harmony,omitempty"`
	Levels  map[string]float64 `yaml:"levels,omitempty"`
}

type patternDoc struct {
	Bars   int                  `yaml:"bars"`
	Tracks map[string][]float64 `yaml:"tracks"`
}

type melodyDoc struct {
	Key       string    `yaml:"key"`
	Scale     string    `yaml:"scale"`
	Notes     []int     `yaml:"notes,flow"`
	Durations []float64 `yaml:"durations,flow"`
}

type harmonyDoc struct {
	Key    string   `yaml:"key"`
	Chords []string `yaml:"chords,flow"`
}

// New builds a project document from live song data. Nil layers are omitted
// from the file.
func New(name string, tempo float64, p *song.Pattern, m *song.Melody, h *song.Harmony, levels map[string]float64) *Project {
	doc := &Project{
		Version: currentVersion,
		Name:    name,
		Tempo:   tempo,
		Levels:  levels,
	}
	if p != nil {
		pd := &patternDoc{Bars: p.Bars, Tracks: make(map[string][]float64, len(p.Tracks))}
		for track, row := range p.Tracks {
			// Backend patterns can carry extra rows past the known kit;
			// only nameable tracks are persisted.
			if track >= len(song.DrumNames) {
				continue
			}
			pd.Tracks[song.DrumNames[track]] = append([]float64(nil), row...)
		}
		doc.Pattern = pd
	}
	if m != nil {
		doc.Melody = &melodyDoc{
			Key:       m.Key,
			Scale:     m.Scale,
			Notes:     append([]int(nil), m.Notes...),
			Durations: append([]float64(nil), m.Durations...),
		}
	}
	if h != nil {
		doc.Harmony = &harmonyDoc{
			Key:    h.Key,
			Chords: append([]string(nil), h.Chords...),
		}
	}
	return doc
}

// SongPattern reconstructs the drum pattern, or nil when the project has
// none. Unknown track names in the file are ignored.
func (doc *Project) SongPattern() *song.Pattern {
	if doc.Pattern == nil {
		return nil
	}
	bars := doc.Pattern.Bars
	if bars < 1 {
		bars = 1
	}
	p := song.NewPattern(song.DrumCount, bars)
	for name, row := range doc.Pattern.Tracks {
		track := song.DrumIndex(name)
		if track < 0 {
			continue
		}
		for step, v := range row {
			p.SetStep(track, step, v)
		}
	}
	return p
}

// SongMelody reconstructs the melody, or nil when the project has none.
func (doc *Project) SongMelody() *song.Melody {
	if doc.Melody == nil {
		return nil
	}
	return &song.Melody{
		Key:       doc.Melody.Key,
		Scale:     doc.Melody.Scale,
		Notes:     append([]int(nil), doc.Melody.Notes...),
		Durations: append([]float64(nil), doc.Melody.Durations...),
	}
}

// SongHarmony reconstructs the progression, or nil when the project has none.
func (doc *Project) SongHarmony() *song.Harmony {
	if doc.Harmony == nil {
		return nil
	}
	return &song.Harmony{
		Key:    doc.Harmony.Key,
		Chords: append([]string(nil), doc.Harmony.Chords...),
	}
}

// Save writes the project to path.
func (doc *Project) Save(path string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	return nil
}

// Load reads a project from path.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project: %w", err)
	}
	var doc Project
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse project: %w", err)
	}
	if doc.Version > currentVersion {
		return nil, fmt.Errorf("project version %d is newer than this build supports", doc.Version)
	}
	return &doc, nil
}
