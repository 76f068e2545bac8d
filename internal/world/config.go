package world

import "strings"

const (
	DefaultSeed  = "prototype"
	DefaultWidth = 100.0
	DefaultDepth = 100.0
)

// Config describes the walkable area hosting the agents. The area spans
// [0, Width] on X and [0, Depth] on Z.
type Config struct {
	Seed  string  `json:"seed"`
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`
}

func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = DefaultSeed
	}
	if normalized.Width <= 0 {
		normalized.Width = DefaultWidth
	}
	if normalized.Depth <= 0 {
		normalized.Depth = DefaultDepth
	}
	return normalized
}

func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

func DefaultConfig() Config {
	return Config{
		Seed:  DefaultSeed,
		Width: DefaultWidth,
		Depth: DefaultDepth,
	}
}
