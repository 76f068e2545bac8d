package walk

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"navwalk/internal/telemetry"
	"navwalk/internal/world"
	"navwalk/logging"
	"navwalk/logging/navigation"
)

// MaxSearchAttempts is the number of destinations tried per request before the
// request is dropped.
const MaxSearchAttempts = 3

const (
	metricRequests        = "walk_requests"
	metricDestinationsSet = "walk_destinations_set"
	metricRejections      = "walk_rejections"
	metricExhausted       = "walk_search_exhausted"
	metricTargetMissing   = "walk_target_missing"
)

// Config carries the collaborators and initial tuning of an Action.
type Config struct {
	ID string

	Planner Planner
	// Self is the agent's own position. It is sampled once at construction to
	// record the starting position.
	Self Positioner
	// Scheduler, when set, receives Decide exactly once.
	Scheduler Scheduler
	// Target may be nil for SelfInDistance.
	Target Positioner

	WalkType WalkType
	Params   Params
	// Inactive starts the action with decisions suspended.
	Inactive bool

	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	Rand      *rand.Rand
	// Tick stamps emitted events. Optional.
	Tick func() uint64
}

// Action is the walk state of one agent. It assumes a single caller at a
// time; hosts with concurrent access must serialize around it.
type Action struct {
	id        string
	planner   Planner
	self      Positioner
	target    Positioner
	publisher logging.Publisher
	metrics   telemetry.Metrics
	selector  *Selector
	tick      func() uint64

	startingPosition world.Vec3
	active           bool
	walkType         WalkType
	params           Params
	searchAttempt    int
}

// NewAction wires an Action and records the agent's starting position.
func NewAction(cfg Config) (*Action, error) {
	if cfg.Planner == nil {
		return nil, ErrMissingPlanner
	}
	if cfg.Self == nil {
		return nil, ErrMissingSelf
	}
	walkType := cfg.WalkType
	if walkType == "" {
		walkType = SelfInDistance
	}
	if !walkType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWalkType, cfg.WalkType)
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("walk: invalid params for %q: %w", cfg.ID, err)
	}

	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NopMetrics()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = world.NewDeterministicRNG(world.DefaultSeed, "walk:"+cfg.ID)
	}

	a := &Action{
		id:               cfg.ID,
		planner:          cfg.Planner,
		self:             cfg.Self,
		target:           cfg.Target,
		publisher:        publisher,
		metrics:          metrics,
		selector:         NewSelector(rng),
		tick:             cfg.Tick,
		startingPosition: cfg.Self.Position(),
		active:           !cfg.Inactive,
		walkType:         walkType,
		params:           cfg.Params,
	}
	if cfg.Scheduler != nil {
		cfg.Scheduler.Register(a.Decide)
	}
	return a, nil
}

// Decide is the scheduler callback. It requests a destination toward the
// current target while the action is active.
func (a *Action) Decide() {
	if !a.active {
		return
	}
	a.RequestDestination(a.target)
}

// RequestDestination clears the planner's path and submits a fresh
// destination, retrying with newly sampled points up to MaxSearchAttempts
// times. It returns true once the planner accepts a point. A target strategy
// without a target is reported and nothing is submitted.
func (a *Action) RequestDestination(target Positioner) bool {
	if !a.planner.Enabled() {
		return false
	}

	ctx := context.Background()
	walkType := a.walkType
	if walkType.RequiresTarget() && target == nil {
		a.metrics.Add(metricTargetMissing, 1)
		navigation.TargetMissing(ctx, a.publisher, a.currentTick(), a.ref(), navigation.TargetMissingPayload{
			WalkType: walkType.String(),
		})
		return false
	}

	a.metrics.Add(metricRequests, 1)
	params := a.params.Normalized()
	traceID := uuid.NewString()
	targets := targetRefs(target)

	for attempt := 1; attempt <= MaxSearchAttempts; attempt++ {
		a.planner.ClearPath()

		dest, err := a.selector.Destination(a.request(walkType, target, params))
		if err != nil {
			a.searchAttempt = 0
			return false
		}

		payload := navigation.DestinationPayload{
			WalkType:    walkType.String(),
			Destination: navigation.Point{X: dest.X, Y: dest.Y, Z: dest.Z},
			Attempt:     attempt,
		}
		if a.planner.SetDestination(dest) {
			a.searchAttempt = 0
			a.metrics.Add(metricDestinationsSet, 1)
			navigation.DestinationSet(ctx, a.publisher, a.currentTick(), a.ref(), targets, traceID, payload)
			return true
		}

		a.metrics.Add(metricRejections, 1)
		navigation.DestinationRejected(ctx, a.publisher, a.currentTick(), a.ref(), targets, traceID, payload)
		if attempt < MaxSearchAttempts {
			a.searchAttempt++
		}
	}

	a.searchAttempt = 0
	a.metrics.Add(metricExhausted, 1)
	navigation.SearchExhausted(ctx, a.publisher, a.currentTick(), a.ref(), targets, traceID, navigation.SearchExhaustedPayload{
		WalkType: walkType.String(),
		Attempts: MaxSearchAttempts,
	})
	return false
}

// HasArrived reports arrival on the action's own planner.
func (a *Action) HasArrived() bool {
	return Arrived(a.planner, a.params.Normalized().AcceptRemainDistance)
}

// NavigationArrived evaluates p against the action's arrival tolerance. It
// is false whenever the action's own planner is disabled.
func (a *Action) NavigationArrived(p Planner) bool {
	if !a.planner.Enabled() {
		return false
	}
	return Arrived(p, a.params.Normalized().AcceptRemainDistance)
}

// InRange reports whether the agent is within the farthest distance the
// current walk type can send it from its reference point. Without a target,
// SelfInDistance measures from the starting position and target strategies
// report false.
func (a *Action) InRange() bool {
	reference := a.startingPosition
	if a.target != nil {
		reference = a.target.Position()
	} else if a.walkType.RequiresTarget() {
		return false
	}
	return WithinRange(a.self.Position(), reference, a.walkType, a.params)
}

func (a *Action) request(walkType WalkType, target Positioner, params Params) Request {
	req := Request{
		WalkType: walkType,
		Agent:    a.self.Position(),
		Start:    a.startingPosition,
		Params:   params,
	}
	if target != nil {
		req.Target = target.Position()
		req.HasTarget = true
	}
	return req
}

func (a *Action) ref() logging.EntityRef {
	return logging.EntityRef{ID: a.id, Kind: logging.EntityKindAgent}
}

func (a *Action) currentTick() uint64 {
	if a.tick == nil {
		return 0
	}
	return a.tick()
}

func targetRefs(target Positioner) []logging.EntityRef {
	named, ok := target.(identified)
	if !ok {
		return nil
	}
	return []logging.EntityRef{{ID: named.ID(), Kind: logging.EntityKindTarget}}
}
