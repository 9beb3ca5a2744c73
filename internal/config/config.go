// Package config holds the tunable parameters of the overlay engine and
// the face detector, loadable from a JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"

	"face-review/pkg/colorutil"
)

// Config is the application configuration.
type Config struct {
	Overlay  OverlayConfig  `json:"overlay"`
	Detector DetectorConfig `json:"detector"`
}

// OverlayConfig controls box coloring and label placement. The search step
// sizes are inherited tuning values with no deeper rationale; they are kept
// configurable rather than hard-coded.
type OverlayConfig struct {
	// Confidence tier thresholds: above High draws the high-confidence
	// color, above Medium the medium color, everything else the low color.
	HighConfidence   float64 `json:"high_confidence"`
	MediumConfidence float64 `json:"medium_confidence"`

	HighColor   color.RGBA `json:"high_color"`
	MediumColor color.RGBA `json:"medium_color"`
	LowColor    color.RGBA `json:"low_color"`

	// Label placement search parameters.
	RadiusStartGap float64 `json:"radius_start_gap"` // added to half the box diagonal axis
	RadiusStep     float64 `json:"radius_step"`
	AngleStepDeg   float64 `json:"angle_step_deg"`

	// Collision buffer: max(MinBufferPx, displayed image width * BufferRatio).
	MinBufferPx float64 `json:"min_buffer_px"`
	BufferRatio float64 `json:"buffer_ratio"`
}

// DetectorConfig controls the DNN face detector.
type DetectorConfig struct {
	ProtoPath    string  `json:"proto_path"`
	ModelPath    string  `json:"model_path"`
	Confidence   float64 `json:"confidence"`
	NMSOverlap   float64 `json:"nms_overlap"`
	MaxInputEdge int     `json:"max_input_edge"`
}

// Default returns the configuration with stock values.
func Default() *Config {
	return &Config{
		Overlay: OverlayConfig{
			HighConfidence:   0.9,
			MediumConfidence: 0.6,
			HighColor:        colorutil.Green,
			MediumColor:      colorutil.Yellow,
			LowColor:         colorutil.Red,
			RadiusStartGap:   20,
			RadiusStep:       25,
			AngleStepDeg:     15,
			MinBufferPx:      25,
			BufferRatio:      0.03,
		},
		Detector: DetectorConfig{
			ProtoPath:    "models/deploy.prototxt",
			ModelPath:    "models/res10_300x300_ssd_iter_140000.caffemodel",
			Confidence:   0.5,
			NMSOverlap:   0.3,
			MaxInputEdge: 1600,
		},
	}
}

// Load reads a configuration file, filling unset sections with defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
