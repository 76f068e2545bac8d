package walk

import (
	"errors"
	"math/rand"
	"testing"

	"navwalk/internal/telemetry"
	"navwalk/internal/world"
	"navwalk/logging"
	"navwalk/logging/navigation"
	"navwalk/logging/sinks"
)

type actionHarness struct {
	action  *Action
	planner *fakePlanner
	self    *world.Vec3
	events  *sinks.MemorySink
	metrics *logging.Metrics
}

func newActionHarness(t *testing.T, cfg Config) *actionHarness {
	t.Helper()
	h := &actionHarness{
		planner: newFakePlanner(),
		self:    &world.Vec3{},
		events:  sinks.NewMemorySink(),
		metrics: &logging.Metrics{},
	}
	if cfg.ID == "" {
		cfg.ID = "walker-1"
	}
	cfg.Planner = h.planner
	cfg.Self = PositionFunc(func() world.Vec3 { return *h.self })
	cfg.Publisher = h.events
	cfg.Metrics = telemetry.WrapMetrics(h.metrics)
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(42))
	}
	action, err := NewAction(cfg)
	if err != nil {
		t.Fatalf("NewAction returned error: %v", err)
	}
	h.action = action
	return h
}

func TestNewActionValidatesConfig(t *testing.T) {
	planner := newFakePlanner()
	self := Fixed{}

	if _, err := NewAction(Config{Self: self}); !errors.Is(err, ErrMissingPlanner) {
		t.Fatalf("expected ErrMissingPlanner, got %v", err)
	}
	if _, err := NewAction(Config{Planner: planner}); !errors.Is(err, ErrMissingSelf) {
		t.Fatalf("expected ErrMissingSelf, got %v", err)
	}
	if _, err := NewAction(Config{Planner: planner, Self: self, WalkType: "JUMP"}); !errors.Is(err, ErrUnknownWalkType) {
		t.Fatalf("expected ErrUnknownWalkType, got %v", err)
	}
	if _, err := NewAction(Config{Planner: planner, Self: self, Params: Params{SelfDistance: -1}}); err == nil {
		t.Fatalf("expected invalid params to be rejected")
	}

	action, err := NewAction(Config{Planner: planner, Self: self})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if action.WalkType() != SelfInDistance {
		t.Fatalf("expected default walk type %q, got %q", SelfInDistance, action.WalkType())
	}
	if !action.Active() {
		t.Fatalf("expected action to start active")
	}
}

func TestNewActionRecordsStartingPositionOnce(t *testing.T) {
	h := newActionHarness(t, Config{Params: DefaultParams()})
	*h.self = world.Vec3{X: 4, Y: 1, Z: 9}

	// The harness sampled the origin; moving afterwards must not shift the start.
	if got := h.action.StartingPosition(); got != (world.Vec3{}) {
		t.Fatalf("expected starting position at origin, got %+v", got)
	}

	h.action.SetStartingPosition(world.Vec3{X: 1})
	if got := h.action.StartingPosition(); got != (world.Vec3{X: 1}) {
		t.Fatalf("expected override to apply, got %+v", got)
	}
}

func TestSchedulerReceivesDecisionOnce(t *testing.T) {
	scheduler := &recordingScheduler{}
	h := newActionHarness(t, Config{Scheduler: scheduler, Params: DefaultParams()})

	if len(scheduler.callbacks) != 1 {
		t.Fatalf("expected one registered callback, got %d", len(scheduler.callbacks))
	}
	scheduler.callbacks[0]()
	if h.planner.setCalls != 1 {
		t.Fatalf("expected the callback to request a destination, got %d calls", h.planner.setCalls)
	}
}

func TestDecideRespectsActiveFlag(t *testing.T) {
	h := newActionHarness(t, Config{Inactive: true, Params: DefaultParams()})

	h.action.Decide()
	if h.planner.clearCalls != 0 || h.planner.setCalls != 0 {
		t.Fatalf("expected inactive action to leave planner untouched")
	}

	h.action.SetActive(true)
	h.action.Decide()
	if h.planner.setCalls != 1 {
		t.Fatalf("expected active action to request a destination, got %d", h.planner.setCalls)
	}
}

func TestRequestDestinationMissingTarget(t *testing.T) {
	for _, walkType := range []WalkType{TargetClosestPoint, TargetInRange} {
		t.Run(walkType.String(), func(t *testing.T) {
			h := newActionHarness(t, Config{WalkType: walkType, Params: DefaultParams()})

			h.action.Decide()

			if h.planner.setCalls != 0 || h.planner.clearCalls != 0 {
				t.Fatalf("expected no planner calls, got set=%d clear=%d", h.planner.setCalls, h.planner.clearCalls)
			}
			if h.action.SearchAttempt() != 0 {
				t.Fatalf("expected search attempt to stay 0, got %d", h.action.SearchAttempt())
			}
			events := h.events.OfType(navigation.EventTargetMissing)
			if len(events) != 1 {
				t.Fatalf("expected one target missing event, got %d", len(events))
			}
			if events[0].Severity != logging.SeverityError {
				t.Fatalf("expected error severity, got %v", events[0].Severity)
			}
			payload, ok := events[0].Payload.(navigation.TargetMissingPayload)
			if !ok || payload.WalkType != walkType.String() {
				t.Fatalf("unexpected payload %#v", events[0].Payload)
			}
			if got := h.metrics.Snapshot()[metricTargetMissing]; got != 1 {
				t.Fatalf("expected target missing counter 1, got %d", got)
			}
			if h.events.Len() != 1 {
				t.Fatalf("expected no other events, got %d", h.events.Len())
			}
		})
	}
}

func TestRequestDestinationSucceedsFirstTry(t *testing.T) {
	target := &namedTarget{id: "player-7", pos: world.Vec3{X: 10}}
	h := newActionHarness(t, Config{WalkType: TargetInRange, Params: Params{RangeDistance: 3}})

	if !h.action.RequestDestination(target) {
		t.Fatalf("expected destination to be accepted")
	}
	if h.planner.clearCalls != 1 || h.planner.setCalls != 1 {
		t.Fatalf("expected one clear and one set, got clear=%d set=%d", h.planner.clearCalls, h.planner.setCalls)
	}
	if h.action.SearchAttempt() != 0 {
		t.Fatalf("expected counter reset, got %d", h.action.SearchAttempt())
	}

	events := h.events.OfType(navigation.EventDestinationSet)
	if len(events) != 1 {
		t.Fatalf("expected one destination set event, got %d", len(events))
	}
	if len(events[0].Targets) != 1 || events[0].Targets[0].ID != "player-7" {
		t.Fatalf("expected target reference in event, got %+v", events[0].Targets)
	}
	if events[0].TraceID == "" {
		t.Fatalf("expected trace id on destination event")
	}
}

func TestRequestDestinationRetriesThenGivesUp(t *testing.T) {
	h := newActionHarness(t, Config{Params: Params{SelfDistance: 5, MaxOffDistance: 1}})
	h.planner.accept = rejectAll

	var observed []int
	h.planner.onSet = func() {
		observed = append(observed, h.action.SearchAttempt())
	}

	if h.action.RequestDestination(nil) {
		t.Fatalf("expected request to be dropped after exhausting retries")
	}
	if h.planner.setCalls != MaxSearchAttempts {
		t.Fatalf("expected %d attempts, got %d", MaxSearchAttempts, h.planner.setCalls)
	}
	if h.planner.clearCalls != MaxSearchAttempts {
		t.Fatalf("expected clear path once per attempt, got %d", h.planner.clearCalls)
	}
	if h.action.SearchAttempt() != 0 {
		t.Fatalf("expected counter reset after exhaustion, got %d", h.action.SearchAttempt())
	}
	for i, attempt := range observed {
		if attempt != i || attempt > 2 {
			t.Fatalf("unexpected counter progression %v", observed)
		}
	}

	d := h.planner.destinations
	if d[0] == d[1] || d[1] == d[2] {
		t.Fatalf("expected retries to resample destinations, got %+v", d)
	}

	rejected := h.events.OfType(navigation.EventDestinationRejected)
	exhausted := h.events.OfType(navigation.EventSearchExhausted)
	if len(rejected) != MaxSearchAttempts || len(exhausted) != 1 {
		t.Fatalf("expected %d rejections and one exhaustion, got %d and %d", MaxSearchAttempts, len(rejected), len(exhausted))
	}
	for _, event := range append(rejected, exhausted...) {
		if event.TraceID != exhausted[0].TraceID {
			t.Fatalf("expected one trace id per request chain")
		}
		if event.Severity != logging.SeverityDebug {
			t.Fatalf("expected rejection events at debug severity, got %v", event.Severity)
		}
	}

	snapshot := h.metrics.Snapshot()
	if snapshot[metricRejections] != 3 || snapshot[metricExhausted] != 1 || snapshot[metricRequests] != 1 {
		t.Fatalf("unexpected metrics %+v", snapshot)
	}

	// A later request starts a fresh chain.
	h.planner.accept = nil
	if !h.action.RequestDestination(nil) {
		t.Fatalf("expected fresh request to succeed")
	}
	if h.planner.setCalls != MaxSearchAttempts+1 {
		t.Fatalf("expected one more attempt, got %d total", h.planner.setCalls)
	}
}

func TestRequestDestinationSucceedsOnRetry(t *testing.T) {
	h := newActionHarness(t, Config{Params: DefaultParams()})
	h.planner.accept = func(call int, _ world.Vec3) bool { return call == 2 }

	if !h.action.RequestDestination(nil) {
		t.Fatalf("expected second attempt to be accepted")
	}
	if h.planner.clearCalls != 2 || h.planner.setCalls != 2 {
		t.Fatalf("expected two attempts, got clear=%d set=%d", h.planner.clearCalls, h.planner.setCalls)
	}
	if h.action.SearchAttempt() != 0 {
		t.Fatalf("expected counter reset after success, got %d", h.action.SearchAttempt())
	}
	if len(h.events.OfType(navigation.EventSearchExhausted)) != 0 {
		t.Fatalf("did not expect an exhaustion event")
	}
}

func TestDisabledPlannerShortCircuits(t *testing.T) {
	h := newActionHarness(t, Config{WalkType: TargetInRange, Params: DefaultParams()})
	h.planner.enabled = false
	h.planner.remaining = 0

	if h.action.RequestDestination(&namedTarget{id: "t"}) {
		t.Fatalf("expected disabled planner to refuse requests")
	}
	if h.action.RequestDestination(nil) {
		t.Fatalf("expected disabled planner to refuse requests")
	}
	if h.action.HasArrived() {
		t.Fatalf("expected disabled planner to never arrive")
	}
	if h.planner.clearCalls+h.planner.setCalls+h.planner.remainingCalls+h.planner.statusCalls != 0 {
		t.Fatalf("expected no planner queries, got %+v", h.planner)
	}
	if h.events.Len() != 0 {
		t.Fatalf("expected no events while disabled, got %d", h.events.Len())
	}
}

func TestHasArrivedUsesAcceptRemainDistance(t *testing.T) {
	h := newActionHarness(t, Config{Params: DefaultParams()})
	h.planner.remaining = 0.5

	if h.action.HasArrived() {
		t.Fatalf("expected 0.5 remaining to exceed default tolerance")
	}
	h.action.SetAcceptRemainDistance(0.5)
	if !h.action.HasArrived() {
		t.Fatalf("expected arrival once tolerance covers the remaining distance")
	}
}

func TestNavigationArrivedOnOtherPlanner(t *testing.T) {
	h := newActionHarness(t, Config{Params: Params{AcceptRemainDistance: 1}})
	other := newFakePlanner()
	other.remaining = 0.5

	if !h.action.NavigationArrived(other) {
		t.Fatalf("expected other planner to count as arrived")
	}

	h.planner.enabled = false
	if h.action.NavigationArrived(other) {
		t.Fatalf("expected disabled own planner to gate arrival checks")
	}
}

func TestInRange(t *testing.T) {
	h := newActionHarness(t, Config{Params: Params{SelfDistance: 5, MaxOffDistance: 1, RangeDistance: 2}})

	*h.self = world.Vec3{X: 6}
	if !h.action.InRange() {
		t.Fatalf("expected agent at the self boundary to be in range of its start")
	}
	*h.self = world.Vec3{X: 7}
	if h.action.InRange() {
		t.Fatalf("expected agent past the self boundary to be out of range")
	}

	if err := h.action.SetWalkType(TargetInRange); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.action.InRange() {
		t.Fatalf("expected target strategy without target to be out of range")
	}
	h.action.SetTarget(&namedTarget{id: "t", pos: world.Vec3{X: 10}})
	if !h.action.InRange() {
		t.Fatalf("expected agent 3 from target to be within 3")
	}
}

func TestSettersApplyAtUse(t *testing.T) {
	h := newActionHarness(t, Config{Params: DefaultParams()})
	h.action.SetSelfDistance(-3)
	h.action.SetMinOffDistance(0)
	h.action.SetMaxOffDistance(0)

	if h.action.SelfDistance() != -3 {
		t.Fatalf("expected setter to store the raw value")
	}
	if !h.action.RequestDestination(nil) {
		t.Fatalf("expected request to succeed")
	}
	if got := h.planner.destinations[0]; got != h.action.StartingPosition() {
		t.Fatalf("expected negative self distance to collapse onto the start, got %+v", got)
	}

	if err := h.action.SetWalkType("RUN"); !errors.Is(err, ErrUnknownWalkType) {
		t.Fatalf("expected ErrUnknownWalkType, got %v", err)
	}
	if h.action.WalkType() != SelfInDistance {
		t.Fatalf("expected walk type unchanged after rejected set")
	}
}

func TestSnapshot(t *testing.T) {
	target := &namedTarget{id: "t", pos: world.Vec3{X: 2}}
	h := newActionHarness(t, Config{ID: "walker-9", WalkType: TargetClosestPoint, Target: target, Params: DefaultParams()})

	state := h.action.Snapshot()
	if state.ID != "walker-9" || state.WalkType != TargetClosestPoint || !state.Active || !state.HasTarget {
		t.Fatalf("unexpected snapshot %+v", state)
	}
	if !state.InRange {
		t.Fatalf("expected agent 2 from target to be within 5")
	}
	if state.Arrived {
		t.Fatalf("expected no arrival while remaining distance is NaN")
	}
}
