// Package midifile exports melody and harmony material as standard MIDI
// files so a session can continue in a DAW.
package midifile

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/beatsmith/groovebox/internal/song"
)

const ticksPerBeat = 960

const (
	melodyChannel  = 0
	harmonyChannel = 1

	melodyVelocity  = 100
	harmonyVelocity = 80
)

func beatsToTicks(beats float64) uint32 {
	t := int64(beats * ticksPerBeat)
	if t < 0 {
		t = 0
	}
	return uint32(t)
}

// Build assembles an SMF with a tempo track plus one track per present
// layer. Either layer may be nil.
func Build(m *song.Melody, h *song.Harmony, bpm float64) (*smf.SMF, error) {
	if m == nil && h == nil {
		return nil, fmt.Errorf("nothing to export")
	}

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerBeat)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(bpm))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		return nil, fmt.Errorf("add tempo track: %w", err)
	}

	if m != nil {
		if err := sm.Add(melodyTrack(m)); err != nil {
			return nil, fmt.Errorf("add melody track: %w", err)
		}
	}
	if h != nil {
		if err := sm.Add(harmonyTrack(h)); err != nil {
			return nil, fmt.Errorf("add harmony track: %w", err)
		}
	}
	return sm, nil
}

// WriteFile exports straight to disk.
func WriteFile(path string, m *song.Melody, h *song.Harmony, bpm float64) error {
	sm, err := Build(m, h, bpm)
	if err != nil {
		return err
	}
	if err := sm.WriteFile(path); err != nil {
		return fmt.Errorf("write midi file: %w", err)
	}
	return nil
}

// melodyTrack lays out the notes back to back; every note-off is immediately
// followed by the next note-on.
func melodyTrack(m *song.Melody) smf.Track {
	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName("melody"))
	for _, ev := range m.Events() {
		pitch := clampPitch(ev.Pitch)
		track.Add(0, midi.NoteOn(melodyChannel, pitch, melodyVelocity))
		track.Add(beatsToTicks(ev.Duration), midi.NoteOff(melodyChannel, pitch))
	}
	track.Close(0)
	return track
}

// harmonyTrack emits block chords, one voicing held for its full duration.
func harmonyTrack(h *song.Harmony) smf.Track {
	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName("harmony"))
	for _, ev := range h.Events() {
		pitches := song.ChordPitches(ev.Symbol, h.Key)
		for _, p := range pitches {
			track.Add(0, midi.NoteOn(harmonyChannel, clampPitch(p), harmonyVelocity))
		}
		hold := beatsToTicks(ev.Duration * song.BeatsPerBar)
		for i, p := range pitches {
			delta := uint32(0)
			if i == 0 {
				delta = hold
			}
			track.Add(delta, midi.NoteOff(harmonyChannel, clampPitch(p)))
		}
	}
	track.Close(0)
	return track
}

func clampPitch(p int) uint8 {
	if p < 0 {
		return 0
	}
	if p > 127 {
		return 127
	}
	return uint8(p)
}
