package world

func Width(cfg Config) float64 {
	if cfg.Width > 0 {
		return cfg.Width
	}
	return DefaultWidth
}

func Depth(cfg Config) float64 {
	if cfg.Depth > 0 {
		return cfg.Depth
	}
	return DefaultDepth
}

func Dimensions(cfg Config) (float64, float64) {
	return Width(cfg), Depth(cfg)
}

// Contains reports whether p lies inside the walkable rectangle of cfg.
func Contains(cfg Config, p Vec3) bool {
	width, depth := Dimensions(cfg)
	return p.X >= 0 && p.X <= width && p.Z >= 0 && p.Z <= depth
}
