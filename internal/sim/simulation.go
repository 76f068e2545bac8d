package sim

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"navwalk/internal/telemetry"
	"navwalk/internal/walk"
	"navwalk/internal/world"
	"navwalk/logging"
)

const (
	DefaultDecisionInterval = 2 * time.Second
	DefaultDecisionJitter   = 500 * time.Millisecond
)

// Config tunes the demo world.
type Config struct {
	World            world.Config
	DecisionInterval time.Duration
	DecisionJitter   time.Duration
	// Definitions defaults to the embedded roster when empty.
	Definitions Definitions
}

// Deps carries the shared observability collaborators.
type Deps struct {
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	Logger    telemetry.Logger
}

type agent struct {
	body     *Body
	planner  *FlatPlanner
	action   *walk.Action
	targetID string
}

// Simulation owns every agent of the demo world behind one mutex.
type Simulation struct {
	mu      sync.Mutex
	cfg     Config
	deps    Deps
	tick    uint64
	trigger *Trigger
	agents  map[string]*agent
	order   []string
}

// AgentState is the transport view of one agent.
type AgentState struct {
	walk.State
	Target      string      `json:"target,omitempty"`
	Destination *world.Vec3 `json:"destination,omitempty"`
	// Remaining is omitted while the planner reports no distance.
	Remaining  *float64 `json:"remaining,omitempty"`
	Navigating bool     `json:"navigating"`
	Speed      float64  `json:"speed"`
}

// Snapshot is the whole world at one tick.
type Snapshot struct {
	Tick   uint64       `json:"tick"`
	Agents []AgentState `json:"agents"`
}

// AgentPatch is a partial agent update. Nil fields are left untouched; an
// empty Target clears the followed target.
type AgentPatch struct {
	WalkType   *walk.WalkType `json:"walkType,omitempty"`
	Active     *bool          `json:"active,omitempty"`
	Target     *string        `json:"target,omitempty"`
	Params     *walk.Params   `json:"params,omitempty"`
	Start      *world.Vec3    `json:"start,omitempty"`
	Navigating *bool          `json:"navigating,omitempty"`
}

func New(cfg Config, deps Deps) (*Simulation, error) {
	cfg.World = cfg.World.Normalized()
	if cfg.DecisionInterval <= 0 {
		cfg.DecisionInterval = DefaultDecisionInterval
	}
	if cfg.DecisionJitter < 0 {
		cfg.DecisionJitter = 0
	}
	if len(cfg.Definitions) == 0 {
		cfg.Definitions = DefaultDefinitions()
	} else {
		defs := append(Definitions(nil), cfg.Definitions...)
		if err := defs.normalize(); err != nil {
			return nil, err
		}
		cfg.Definitions = defs
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.NopMetrics()
	}

	s := &Simulation{
		cfg:     cfg,
		deps:    deps,
		trigger: NewTrigger(cfg.DecisionInterval, cfg.DecisionJitter, world.NewDeterministicRNG(cfg.World.Seed, "trigger")),
		agents:  make(map[string]*agent, len(cfg.Definitions)),
	}

	for _, def := range cfg.Definitions {
		if !world.Contains(cfg.World, def.Start) {
			return nil, fmt.Errorf("agent %q: start %+v outside the %vx%v world", def.ID, def.Start, cfg.World.Width, cfg.World.Depth)
		}
		body := NewBody(def.ID, def.Start, def.Speed)
		s.agents[def.ID] = &agent{body: body, planner: NewFlatPlanner(cfg.World, body), targetID: def.Target}
		s.order = append(s.order, def.ID)
	}

	var errs []error
	for _, def := range cfg.Definitions {
		ag := s.agents[def.ID]
		action, err := walk.NewAction(walk.Config{
			ID:        def.ID,
			Planner:   ag.planner,
			Self:      ag.body,
			Scheduler: s.trigger,
			Target:    s.positioner(def.Target),
			WalkType:  def.WalkType,
			Params:    *def.Params,
			Inactive:  !def.active(),
			Publisher: deps.Publisher,
			Metrics:   deps.Metrics,
			Rand:      world.NewDeterministicRNG(cfg.World.Seed, "walk:"+def.ID),
			Tick:      s.currentTick,
		})
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ag.action = action
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if deps.Logger != nil {
		deps.Logger.Printf("[sim] world %vx%v seeded %q with %d agents", cfg.World.Width, cfg.World.Depth, cfg.World.Seed, len(s.order))
	}
	return s, nil
}

// positioner resolves a target id. It returns an untyped nil for unknown or
// empty ids so walk actions see no target.
func (s *Simulation) positioner(id string) walk.Positioner {
	ag, ok := s.agents[id]
	if !ok || id == "" {
		return nil
	}
	return ag.body
}

// currentTick is read from inside Step, which already holds mu.
func (s *Simulation) currentTick() uint64 { return s.tick }

// Step advances the world by dt: due decisions run first, then every body
// walks along its path.
func (s *Simulation) Step(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick++
	s.trigger.Advance(dt)
	seconds := dt.Seconds()
	for _, id := range s.order {
		s.agents[id].planner.Step(seconds)
	}
}

func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{Tick: s.tick, Agents: make([]AgentState, 0, len(s.order))}
	for _, id := range s.order {
		snap.Agents = append(snap.Agents, s.agents[id].state())
	}
	return snap
}

// Agent returns one agent's state.
func (s *Simulation) Agent(id string) (AgentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ag, ok := s.agents[id]
	if !ok {
		return AgentState{}, fmt.Errorf("%w: %q", ErrUnknownAgent, id)
	}
	return ag.state(), nil
}

// IDs lists the agents in roster order.
func (s *Simulation) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Tick reports how many steps have run.
func (s *Simulation) Tick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}

// UpdateAgent validates the whole patch before applying any of it.
func (s *Simulation) UpdateAgent(id string, patch AgentPatch) (AgentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ag, ok := s.agents[id]
	if !ok {
		return AgentState{}, fmt.Errorf("%w: %q", ErrUnknownAgent, id)
	}

	var errs []error
	if patch.WalkType != nil && !patch.WalkType.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", walk.ErrUnknownWalkType, *patch.WalkType))
	}
	if patch.Target != nil && *patch.Target != "" {
		if _, known := s.agents[*patch.Target]; !known || *patch.Target == id {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownTarget, *patch.Target))
		}
	}
	if patch.Params != nil {
		if err := patch.Params.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if patch.Start != nil && !world.Contains(s.cfg.World, *patch.Start) {
		errs = append(errs, fmt.Errorf("start %+v outside the world", *patch.Start))
	}
	if err := errors.Join(errs...); err != nil {
		return AgentState{}, err
	}

	if patch.WalkType != nil {
		_ = ag.action.SetWalkType(*patch.WalkType)
	}
	if patch.Active != nil {
		ag.action.SetActive(*patch.Active)
	}
	if patch.Target != nil {
		ag.targetID = *patch.Target
		ag.action.SetTarget(s.positioner(ag.targetID))
	}
	if patch.Params != nil {
		ag.action.SetParams(*patch.Params)
	}
	if patch.Start != nil {
		ag.action.SetStartingPosition(*patch.Start)
	}
	if patch.Navigating != nil {
		ag.planner.SetEnabled(*patch.Navigating)
	}
	return ag.state(), nil
}

// RequestDestination runs one dispatch for the agent immediately, outside
// its decision cadence.
func (s *Simulation) RequestDestination(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ag, ok := s.agents[id]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownAgent, id)
	}
	return ag.action.RequestDestination(ag.action.Target()), nil
}

func (ag *agent) state() AgentState {
	state := AgentState{
		State:      ag.action.Snapshot(),
		Target:     ag.targetID,
		Navigating: ag.planner.Enabled(),
		Speed:      ag.body.Speed(),
	}
	if dest, ok := ag.planner.Destination(); ok {
		state.Destination = &dest
	}
	if remaining := ag.planner.RemainingDistance(); !math.IsNaN(remaining) {
		state.Remaining = &remaining
	}
	return state
}
