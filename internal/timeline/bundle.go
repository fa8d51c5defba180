package timeline

import (
	"encoding/json"
	"fmt"
)

// DefaultTempo is used when a bundle carries no usable tempo.
const DefaultTempo = 120.0

// Stream names as they appear in the bundle document.
const (
	StreamBeats    = "beats"
	StreamLoudness = "loudness"
	StreamCentroid = "centroid"
	StreamBass     = "bass"
	StreamMelBands = "melbands"
)

// Bundle is one track's worth of precomputed analysis, as produced by the
// external analysis pipeline. Every stream is optional.
type Bundle struct {
	Tempo    float64      `json:"tempo,omitempty"`
	Beats    []float64    `json:"beats,omitempty"`
	Loudness []Sample     `json:"loudness,omitempty"`
	Centroid []Sample     `json:"centroid,omitempty"`
	Bass     []Sample     `json:"bass,omitempty"`
	MelBands []BandSample `json:"melbands,omitempty"`

	// Dropped lists streams that were present but could not be decoded.
	Dropped []string `json:"-"`
}

type rawBundle struct {
	Tempo    json.RawMessage `json:"tempo"`
	Beats    json.RawMessage `json:"beats"`
	Loudness json.RawMessage `json:"loudness"`
	Centroid json.RawMessage `json:"centroid"`
	Bass     json.RawMessage `json:"bass"`
	MelBands json.RawMessage `json:"melbands"`
}

type rawBandSample struct {
	T float64   `json:"t"`
	V []float64 `json:"v"`
}

// Decode parses a bundle document. Only a document that is not a JSON object
// at all is an error; a malformed stream is left empty and named in Dropped.
func Decode(data []byte) (Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return Bundle{}, err
	}
	return b, nil
}

// UnmarshalJSON decodes each stream independently so a bad stream never
// takes the rest of the bundle down with it.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	var raw rawBundle
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode bundle: %w", err)
	}

	*b = Bundle{}
	drop := func(name string) { b.Dropped = append(b.Dropped, name) }

	if present(raw.Tempo) {
		if err := json.Unmarshal(raw.Tempo, &b.Tempo); err != nil {
			b.Tempo = 0
		}
	}
	if present(raw.Beats) {
		if err := json.Unmarshal(raw.Beats, &b.Beats); err != nil {
			b.Beats = nil
			drop(StreamBeats)
		}
	}
	decodeScalar := func(name string, msg json.RawMessage, dst *[]Sample) {
		if !present(msg) {
			return
		}
		if err := json.Unmarshal(msg, dst); err != nil {
			*dst = nil
			drop(name)
		}
	}
	decodeScalar(StreamLoudness, raw.Loudness, &b.Loudness)
	decodeScalar(StreamCentroid, raw.Centroid, &b.Centroid)
	decodeScalar(StreamBass, raw.Bass, &b.Bass)

	if present(raw.MelBands) {
		var bands []rawBandSample
		if err := json.Unmarshal(raw.MelBands, &bands); err != nil {
			drop(StreamMelBands)
			return nil
		}
		out := make([]BandSample, 0, len(bands))
		for _, s := range bands {
			if len(s.V) != BandCount {
				drop(StreamMelBands)
				return nil
			}
			var v Bands
			copy(v[:], s.V)
			out = append(out, BandSample{T: s.T, V: v})
		}
		b.MelBands = out
	}
	return nil
}

func present(msg json.RawMessage) bool {
	return len(msg) > 0 && string(msg) != "null"
}
