package fracture

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Range is a closed interval of floats.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Draw returns a uniform value in the range, or Min without a draw when the
// range is a single value.
func (r Range) Draw(rng Rand) float64 {
	if r.Max == r.Min {
		return r.Min
	}
	return r.Min + (r.Max-r.Min)*rng.Float64()
}

// IntRange is a closed interval of ints.
type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (r IntRange) Draw(rng Rand) int {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// Config holds the fracture tunables.
type Config struct {
	// Sites is how many seed points are scattered per fracture.
	Sites IntRange `json:"sites"`
	// Extent is the side of the square seed box for bodies with no extent.
	Extent float64 `json:"extent"`
	// Recoil scales the outward velocity kick given to each fragment.
	Recoil      Range   `json:"recoil"`
	Restitution float64 `json:"restitution"`
	Friction    float64 `json:"friction"`

	// RotateOffsets rotates each seed offset by the parent's angle before
	// placing the fragment. Off matches the legacy placement.
	RotateOffsets bool `json:"rotateOffsets"`
}

func DefaultConfig() Config {
	return Config{
		Sites:       IntRange{90, 125},
		Extent:      100,
		Recoil:      Range{1, 4},
		Restitution: 0.75,
		Friction:    0.1,
	}
}

var (
	ErrSiteCount = errors.New("site count must be at least 1")
	ErrRange     = errors.New("range minimum exceeds maximum")
	ErrExtent    = errors.New("extent must not be negative")
)

func (c Config) Validate() error {
	if c.Sites.Min < 1 {
		return fmt.Errorf("sites %d..%d: %w", c.Sites.Min, c.Sites.Max, ErrSiteCount)
	}
	if c.Sites.Min > c.Sites.Max {
		return fmt.Errorf("sites %d..%d: %w", c.Sites.Min, c.Sites.Max, ErrRange)
	}
	if c.Recoil.Min > c.Recoil.Max {
		return fmt.Errorf("recoil %v..%v: %w", c.Recoil.Min, c.Recoil.Max, ErrRange)
	}
	if c.Extent < 0 {
		return fmt.Errorf("extent %v: %w", c.Extent, ErrExtent)
	}
	return nil
}

// LoadConfig reads a JSON config file. Fields missing from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return config, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}
