package combined

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	wavFormatPCM     = 1
	wavFormatFloat32 = 3
)

// DecodeWAV parses a RIFF/WAVE byte stream into interleaved stereo float32
// samples. Accepts 16-bit PCM and 32-bit float, mono or stereo; mono input
// is duplicated to both channels.
func DecodeWAV(data []byte) ([]float32, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a RIFF/WAVE stream")
	}

	var (
		format     uint16
		channels   int
		sampleRate int
		bitDepth   int
		haveFmt    bool
	)

	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			return nil, 0, fmt.Errorf("truncated %q chunk", id)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}
			format = binary.LittleEndian.Uint16(data[body:])
			channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			bitDepth = int(binary.LittleEndian.Uint16(data[body+14:]))
			haveFmt = true
		case "data":
			if !haveFmt {
				return nil, 0, fmt.Errorf("data chunk before fmt chunk")
			}
			samples, err := decodeData(data[body:body+size], format, bitDepth, channels)
			if err != nil {
				return nil, 0, err
			}
			return samples, sampleRate, nil
		}
		// Chunks are word-aligned.
		off = body + size + size%2
	}
	return nil, 0, fmt.Errorf("no data chunk")
}

func decodeData(raw []byte, format uint16, bitDepth, channels int) ([]float32, error) {
	if channels != 1 && channels != 2 {
		return nil, fmt.Errorf("unsupported channel count %d", channels)
	}

	mono := channels == 1
	var out []float32

	switch {
	case format == wavFormatFloat32 && bitDepth == 32:
		n := len(raw) / 4
		out = make([]float32, 0, samplesOut(n, mono))
		for i := 0; i < n; i++ {
			s := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
			out = appendSample(out, s, mono)
		}
	case format == wavFormatPCM && bitDepth == 16:
		n := len(raw) / 2
		out = make([]float32, 0, samplesOut(n, mono))
		for i := 0; i < n; i++ {
			s := float32(int16(binary.LittleEndian.Uint16(raw[i*2:]))) / 32768.0
			out = appendSample(out, s, mono)
		}
	default:
		return nil, fmt.Errorf("unsupported format %d at %d bits", format, bitDepth)
	}
	return out, nil
}

func samplesOut(n int, mono bool) int {
	if mono {
		return n * 2
	}
	return n
}

func appendSample(out []float32, s float32, mono bool) []float32 {
	if mono {
		return append(out, s, s)
	}
	return append(out, s)
}
