// Command groovebox-render renders a session to a WAV file (and optionally
// a MIDI file) without opening an audio device.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/beatsmith/groovebox"
	"github.com/beatsmith/groovebox/internal/api"
	"github.com/beatsmith/groovebox/internal/config"
	"github.com/beatsmith/groovebox/internal/midifile"
	"github.com/beatsmith/groovebox/internal/project"
	"github.com/beatsmith/groovebox/internal/song"
)

func main() {
	cfg := config.Load()
	var (
		sampleRate  = flag.Int("sample-rate", cfg.SampleRate, "output sample rate")
		tempo       = flag.Float64("tempo", cfg.Tempo, "tempo in BPM")
		genre       = flag.String("genre", cfg.Genre, "seed genre: hip-hop|rock|jazz|electronic")
		bars        = flag.Int("bars", 2, "pattern length in bars")
		seconds     = flag.Float64("seconds", 8, "render length in seconds")
		withMelody  = flag.Bool("melody", true, "include the seed melody")
		withHarmony = flag.Bool("harmony", true, "include the seed progression")
		projectPath = flag.String("project", "", "render a saved project instead of seeds")
		backendURL  = flag.String("backend", cfg.BackendURL, "generate material from a producer backend instead of seeds")
		key         = flag.String("key", cfg.Key, "key for backend-generated material")
		outPath     = flag.String("out", "groovebox.wav", "output WAV path")
		midiPath    = flag.String("midi", "", "also export melody and harmony as MIDI")
	)
	flag.Parse()

	var (
		p   *song.Pattern
		m   *song.Melody
		h   *song.Harmony
		bpm = *tempo
	)
	switch {
	case strings.TrimSpace(*projectPath) != "":
		doc, err := project.Load(*projectPath)
		if err != nil {
			log.Fatal(err)
		}
		p, m, h = doc.SongPattern(), doc.SongMelody(), doc.SongHarmony()
		bpm = doc.Tempo
	case strings.TrimSpace(*backendURL) != "":
		var err error
		p, m, h, err = generateFromBackend(*backendURL, *genre, *key, *bars, int(bpm), *withMelody, *withHarmony)
		if err != nil {
			log.Fatal(err)
		}
	default:
		p = song.SeedPattern(*genre, *bars)
		if *withMelody {
			m = song.SeedMelody(*bars)
		}
		if *withHarmony {
			h = song.SeedHarmony(*bars)
		}
	}

	samples, err := groovebox.RenderSong(p, m, h, bpm, *seconds, *sampleRate)
	if err != nil {
		log.Fatal(err)
	}
	wav := groovebox.EncodeWAVFloat32LE(samples, *sampleRate, 2)
	if err := os.WriteFile(*outPath, wav, 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (%.1fs at %d Hz)\n", *outPath, *seconds, *sampleRate)

	if strings.TrimSpace(*midiPath) != "" {
		if m == nil && h == nil {
			log.Fatal("nothing to export as MIDI: no melody or harmony")
		}
		if err := midifile.WriteFile(*midiPath, m, h, bpm); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s\n", *midiPath)
	}
}

// generateFromBackend asks the producer service for each layer. The harmony
// endpoint returns ranked suggestions; the top one wins.
func generateFromBackend(baseURL, genre, key string, bars, tempo int, wantMelody, wantHarmony bool) (*song.Pattern, *song.Melody, *song.Harmony, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	client := api.NewClient(baseURL)

	beat, err := client.GenerateBeat(ctx, api.BeatRequest{
		Genre: genre, Tempo: tempo, Bars: bars, Complexity: 0.7,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("generate beat: %w", err)
	}

	var m *song.Melody
	if wantMelody {
		mel, err := client.GenerateMelody(ctx, api.MelodyRequest{
			Key: key, Scale: "major", Tempo: tempo, Bars: bars,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("generate melody: %w", err)
		}
		m = mel.Melody
	}

	var h *song.Harmony
	if wantHarmony {
		suggestions, err := client.SuggestHarmony(ctx, api.HarmonyRequest{
			Key: key, Genre: genre, Mood: "happy", Bars: bars,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("suggest harmony: %w", err)
		}
		if len(suggestions) > 0 {
			h = suggestions[0].Harmony
			fmt.Printf("using progression %q: %s\n", suggestions[0].Name, suggestions[0].Description)
		}
	}
	return beat.Pattern, m, h, nil
}
