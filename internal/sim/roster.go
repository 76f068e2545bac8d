package sim

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"navwalk/internal/walk"
	"navwalk/internal/world"
)

//go:embed configs/roster.json
var embeddedRoster []byte

var (
	ErrDuplicateAgent = errors.New("sim: duplicate agent id")
	ErrUnknownAgent   = errors.New("sim: unknown agent")
	ErrUnknownTarget  = errors.New("sim: unknown target")
)

// DefaultSpeed is the walking speed, in units per second, of agents whose
// definition leaves it unset.
const DefaultSpeed = 3.0

// Definition is the authoring form of one agent in a roster file.
type Definition struct {
	ID       string        `json:"id,omitempty" jsonschema:"title=Agent id,pattern=^[A-Za-z0-9_\\-]+$,description=Unique agent identifier; generated when omitted"`
	WalkType walk.WalkType `json:"walkType,omitempty" jsonschema:"enum=SELF_IN_DISTANCE,enum=TARGET_CLOSEST_POINT,enum=TARGET_IN_RANGE,description=Rule used to derive destinations"`
	Active   *bool         `json:"active,omitempty" jsonschema:"description=Whether decisions run; defaults to true"`
	Target   string        `json:"target,omitempty" jsonschema:"description=Id of the agent followed by target walk types"`
	Start    world.Vec3    `json:"start" jsonschema:"description=Spawn position; recorded as the starting position"`
	Speed    float64       `json:"speed,omitempty" jsonschema:"minimum=0,description=Walking speed in units per second"`
	Params   *walk.Params  `json:"params,omitempty" jsonschema:"description=Distance tuning; defaults apply when omitted"`
}

// Definitions is the contents of a roster file.
type Definitions []Definition

// DefaultDefinitions returns the roster bundled with the binary.
func DefaultDefinitions() Definitions {
	defs, err := ParseDefinitions(embeddedRoster)
	if err != nil {
		panic(fmt.Sprintf("sim: embedded roster invalid: %v", err))
	}
	return defs
}

// ParseDefinitions decodes and validates a roster.
func ParseDefinitions(data []byte) (Definitions, error) {
	var defs Definitions
	if err := json.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	if err := defs.normalize(); err != nil {
		return nil, err
	}
	return defs, nil
}

// normalize fills generated ids and defaults, then checks references.
func (defs Definitions) normalize() error {
	seen := make(map[string]struct{}, len(defs))
	for i := range defs {
		def := &defs[i]
		def.ID = strings.TrimSpace(def.ID)
		if def.ID == "" {
			def.ID = uuid.NewString()
		}
		if _, dup := seen[def.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateAgent, def.ID)
		}
		seen[def.ID] = struct{}{}
		if def.WalkType == "" {
			def.WalkType = walk.SelfInDistance
		}
		if def.Speed < 0 {
			return fmt.Errorf("agent %q: speed must be >= 0", def.ID)
		}
		if def.Speed == 0 {
			def.Speed = DefaultSpeed
		}
		if def.Params == nil {
			params := walk.DefaultParams()
			def.Params = &params
		}
		if err := def.Params.Validate(); err != nil {
			return fmt.Errorf("agent %q: %w", def.ID, err)
		}
	}
	for _, def := range defs {
		if def.Target == "" {
			continue
		}
		if _, ok := seen[def.Target]; !ok || def.Target == def.ID {
			return fmt.Errorf("agent %q: %w %q", def.ID, ErrUnknownTarget, def.Target)
		}
	}
	return nil
}

func (d Definition) active() bool {
	return d.Active == nil || *d.Active
}
