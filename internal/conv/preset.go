package conv

import (
	"encoding/json"
	"fmt"
	"os"
)

// Preset1D returns the classroom example: a short signal and a [1, 0, -1]
// difference kernel.
func Preset1D() (input, kernel []float64) {
	return []float64{1, 0, 2, 3, 0, 1, 1, 2, 0, 1}, []float64{1, 0, -1}
}

// Preset2D returns a 5x5 binary image and a vertical edge detector.
func Preset2D() (input, kernel [][]float64) {
	input = [][]float64{
		{1, 1, 1, 0, 0},
		{0, 1, 1, 1, 0},
		{0, 0, 1, 1, 1},
		{0, 0, 1, 1, 0},
		{0, 1, 1, 0, 0},
	}
	kernel = [][]float64{
		{1, 0, -1},
		{1, 0, -1},
		{1, 0, -1},
	}
	return input, kernel
}

// presetFile is the on-disk format. A 1D file uses flat arrays, a 2D file
// uses nested ones; json.RawMessage defers the decision.
type presetFile struct {
	Input  json.RawMessage `json:"input"`
	Kernel json.RawMessage `json:"kernel"`
}

func readPreset(path string) (*presetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset: %w", err)
	}
	var p presetFile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode preset: %w", err)
	}
	return &p, nil
}

// Load1D builds a 1D engine from a JSON preset file. An empty path yields
// the built-in preset.
func Load1D(path string) (*Engine1D, error) {
	if path == "" {
		return New1D(Preset1D())
	}
	p, err := readPreset(path)
	if err != nil {
		return nil, err
	}
	var input, kernel []float64
	if err := json.Unmarshal(p.Input, &input); err != nil {
		return nil, fmt.Errorf("failed to decode preset input: %w", err)
	}
	if err := json.Unmarshal(p.Kernel, &kernel); err != nil {
		return nil, fmt.Errorf("failed to decode preset kernel: %w", err)
	}
	return New1D(input, kernel)
}

// Load2D builds a 2D engine from a JSON preset file. An empty path yields
// the built-in preset.
func Load2D(path string) (*Engine2D, error) {
	if path == "" {
		return New2DFromRows(Preset2D())
	}
	p, err := readPreset(path)
	if err != nil {
		return nil, err
	}
	var input, kernel [][]float64
	if err := json.Unmarshal(p.Input, &input); err != nil {
		return nil, fmt.Errorf("failed to decode preset input: %w", err)
	}
	if err := json.Unmarshal(p.Kernel, &kernel); err != nil {
		return nil, fmt.Errorf("failed to decode preset kernel: %w", err)
	}
	return New2DFromRows(input, kernel)
}
