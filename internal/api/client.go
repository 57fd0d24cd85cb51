// Package api talks to the generation backend over REST. The backend
// produces pattern, melody and harmony material; everything it returns is
// converted to song types at the boundary so the rest of the engine never
// sees wire shapes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beatsmith/groovebox/internal/song"
)

// Client communicates with the producer backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// BeatRequest contains parameters for drum pattern generation.
type BeatRequest struct {
	Genre      string  `json:"genre"`
	Tempo      int     `json:"tempo"`
	Bars       int     `json:"bars"`
	Complexity float64 `json:"complexity"`
}

// BeatResult is a generated pattern plus a preview reference.
type BeatResult struct {
	ID       string
	Pattern  *song.Pattern
	AudioURL string
}

type beatResp struct {
	ID       string      `json:"id"`
	Pattern  [][]float64 `json:"pattern"`
	AudioURL string      `json:"audio_url"`
}

// GenerateBeat requests a drum pattern from the backend.
func (c *Client) GenerateBeat(ctx context.Context, req BeatRequest) (*BeatResult, error) {
	var resp beatResp
	if err := c.postJSON(ctx, "/api/generate/beat", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Pattern) == 0 {
		return nil, fmt.Errorf("backend returned an empty pattern")
	}
	bars := len(resp.Pattern[0]) / song.StepsPerBar
	if bars < 1 {
		bars = 1
	}
	p := song.NewPattern(len(resp.Pattern), bars)
	for track, row := range resp.Pattern {
		for step, v := range row {
			p.SetStep(track, step, v)
		}
	}
	return &BeatResult{ID: resp.ID, Pattern: p, AudioURL: resp.AudioURL}, nil
}

// MelodyRequest contains parameters for melody generation.
type MelodyRequest struct {
	Key              string   `json:"key"`
	Scale            string   `json:"scale"`
	Tempo            int      `json:"tempo"`
	Bars             int      `json:"bars"`
	ChordProgression []string `json:"chord_progression,omitempty"`
}

// MelodyResult is a generated melody plus preview references.
type MelodyResult struct {
	Melody   *song.Melody
	MIDIURL  string
	AudioURL string
}

type melodyResp struct {
	Notes     []int     `json:"notes"`
	Durations []float64 `json:"durations"`
	MIDIURL   string    `json:"midi_url"`
	AudioURL  string    `json:"audio_url"`
}

// GenerateMelody requests a melody from the backend.
func (c *Client) GenerateMelody(ctx context.Context, req MelodyRequest) (*MelodyResult, error) {
	var resp melodyResp
	if err := c.postJSON(ctx, "/api/generate/melody", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Notes) != len(resp.Durations) {
		return nil, fmt.Errorf("backend melody has %d notes but %d durations", len(resp.Notes), len(resp.Durations))
	}
	m := &song.Melody{
		Notes:     resp.Notes,
		Durations: resp.Durations,
		Key:       req.Key,
		Scale:     req.Scale,
	}
	return &MelodyResult{Melody: m, MIDIURL: resp.MIDIURL, AudioURL: resp.AudioURL}, nil
}

// HarmonyRequest contains parameters for progression suggestion.
type HarmonyRequest struct {
	Key   string `json:"key"`
	Genre string `json:"genre"`
	Mood  string `json:"mood"`
	Bars  int    `json:"bars"`
}

// Suggestion is one ranked progression from the backend.
type Suggestion struct {
	Harmony     *song.Harmony
	Name        string
	Description string
	Score       float64
	AudioURL    string
}

type harmonyResp struct {
	Suggestions []struct {
		Progression struct {
			Chords      []string `json:"chords"`
			Name        string   `json:"name"`
			Description string   `json:"description"`
			Score       float64  `json:"score"`
		} `json:"progression"`
		AudioURL string `json:"audio_url"`
	} `json:"suggestions"`
}

// SuggestHarmony requests ranked chord progressions from the backend.
func (c *Client) SuggestHarmony(ctx context.Context, req HarmonyRequest) ([]Suggestion, error) {
	var resp harmonyResp
	if err := c.postJSON(ctx, "/api/suggest/harmony", req, &resp); err != nil {
		return nil, err
	}
	out := make([]Suggestion, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		out = append(out, Suggestion{
			Harmony:     &song.Harmony{Chords: s.Progression.Chords, Key: req.Key},
			Name:        s.Progression.Name,
			Description: s.Progression.Description,
			Score:       s.Progression.Score,
			AudioURL:    s.AudioURL,
		})
	}
	return out, nil
}

// FetchAudio downloads a preview referenced by an earlier response. The path
// comes from the backend, so it is joined to the configured base URL rather
// than trusted as absolute.
func (c *Client) FetchAudio(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch audio: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch audio: backend returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

type errorResp struct {
	Detail string `json:"detail"`
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e errorResp
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Detail != "" {
			return fmt.Errorf("backend error on %s: %s", path, e.Detail)
		}
		return fmt.Errorf("backend error on %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
