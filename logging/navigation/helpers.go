// Package navigation publishes the structured events emitted by walk actions.
package navigation

import (
	"context"

	"navwalk/logging"
)

const (
	// EventTargetMissing is emitted when a target strategy runs without a target.
	EventTargetMissing logging.EventType = "navigation.target_missing"
	// EventDestinationSet is emitted when the planner accepts a destination.
	EventDestinationSet logging.EventType = "navigation.destination_set"
	// EventDestinationRejected is emitted for every destination the planner refuses.
	EventDestinationRejected logging.EventType = "navigation.destination_rejected"
	// EventSearchExhausted is emitted when every attempt of a request was rejected.
	EventSearchExhausted logging.EventType = "navigation.search_exhausted"
)

// Point is the wire form of a destination.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TargetMissingPayload names the strategy that needed a target.
type TargetMissingPayload struct {
	WalkType string `json:"walkType"`
}

// DestinationPayload describes one submitted destination.
type DestinationPayload struct {
	WalkType    string `json:"walkType"`
	Destination Point  `json:"destination"`
	Attempt     int    `json:"attempt"`
}

// SearchExhaustedPayload records how many attempts were made.
type SearchExhaustedPayload struct {
	WalkType string `json:"walkType"`
	Attempts int    `json:"attempts"`
}

// TargetMissing publishes a precondition failure at error severity.
func TargetMissing(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload TargetMissingPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTargetMissing,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityError,
		Category: logging.CategoryNavigation,
		Payload:  payload,
	})
}

// DestinationSet publishes an accepted destination.
func DestinationSet(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, traceID string, payload DestinationPayload) {
	publishDestination(ctx, pub, EventDestinationSet, tick, actor, targets, traceID, payload)
}

// DestinationRejected publishes a refused destination.
func DestinationRejected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, traceID string, payload DestinationPayload) {
	publishDestination(ctx, pub, EventDestinationRejected, tick, actor, targets, traceID, payload)
}

// SearchExhausted publishes an abandoned request. Exhaustion is an expected
// condition, so it stays at debug severity.
func SearchExhausted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, traceID string, payload SearchExhaustedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSearchExhausted,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNavigation,
		Payload:  payload,
		TraceID:  traceID,
	})
}

func publishDestination(ctx context.Context, pub logging.Publisher, eventType logging.EventType, tick uint64, actor logging.EntityRef, targets []logging.EntityRef, traceID string, payload DestinationPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Targets:  targets,
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNavigation,
		Payload:  payload,
		TraceID:  traceID,
	})
}
