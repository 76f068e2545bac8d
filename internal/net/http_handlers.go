package net

import (
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"time"

	"github.com/gorilla/mux"

	"navwalk/internal/net/ws"
	"navwalk/internal/observability"
	"navwalk/internal/sim"
	"navwalk/internal/telemetry"
	"navwalk/internal/walk"
	"navwalk/logging"
)

// World is the simulation surface served over HTTP.
type World interface {
	Tick() uint64
	Snapshot() sim.Snapshot
	Agent(id string) (sim.AgentState, error)
	UpdateAgent(id string, patch sim.AgentPatch) (sim.AgentState, error)
	RequestDestination(id string) (bool, error)
}

type HTTPHandlerConfig struct {
	Logger telemetry.Logger
	// Metrics is reported by /diagnostics when set.
	Metrics *logging.Metrics
	// Hub enables the /ws stream when set.
	Hub           *ws.Hub
	Observability observability.Config
}

const maxPatchBytes = 64 << 10

func NewHTTPHandler(world World, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}

	router := mux.NewRouter()

	router.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	}).Methods(nethttp.MethodGet)

	router.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status      string            `json:"status"`
			ServerTime  int64             `json:"serverTime"`
			Tick        uint64            `json:"tick"`
			Subscribers int               `json:"subscribers"`
			Telemetry   map[string]uint64 `json:"telemetry"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Tick:       world.Tick(),
			Telemetry:  cfg.Metrics.Snapshot(),
		}
		if cfg.Hub != nil {
			payload.Subscribers = cfg.Hub.Len()
		}
		if payload.Telemetry == nil {
			payload.Telemetry = map[string]uint64{}
		}
		writeJSON(w, logger, nethttp.StatusOK, payload)
	}).Methods(nethttp.MethodGet)

	router.HandleFunc("/agents", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, logger, nethttp.StatusOK, world.Snapshot())
	}).Methods(nethttp.MethodGet)

	router.HandleFunc("/agents/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		state, err := world.Agent(mux.Vars(r)["id"])
		if err != nil {
			httpError(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, logger, nethttp.StatusOK, state)
	}).Methods(nethttp.MethodGet)

	router.HandleFunc("/agents/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var patch sim.AgentPatch
		if r.Body != nil {
			defer r.Body.Close()
			decoder := json.NewDecoder(io.LimitReader(r.Body, maxPatchBytes))
			decoder.DisallowUnknownFields()
			if err := decoder.Decode(&patch); err != nil && err != io.EOF {
				httpError(w, "invalid payload: "+err.Error(), nethttp.StatusBadRequest)
				return
			}
		}
		state, err := world.UpdateAgent(mux.Vars(r)["id"], patch)
		if err != nil {
			httpError(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, logger, nethttp.StatusOK, state)
	}).Methods(nethttp.MethodPatch)

	router.HandleFunc("/agents/{id}/destination", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		id := mux.Vars(r)["id"]
		accepted, err := world.RequestDestination(id)
		if err != nil {
			httpError(w, err.Error(), statusFor(err))
			return
		}
		state, err := world.Agent(id)
		if err != nil {
			httpError(w, err.Error(), statusFor(err))
			return
		}
		writeJSON(w, logger, nethttp.StatusOK, struct {
			Accepted bool           `json:"accepted"`
			Agent    sim.AgentState `json:"agent"`
		}{Accepted: accepted, Agent: state})
	}).Methods(nethttp.MethodPost)

	if cfg.Hub != nil {
		handler := ws.NewHandler(cfg.Hub, ws.HandlerConfig{Logger: logger})
		router.HandleFunc("/ws", handler.Handle).Methods(nethttp.MethodGet)
	}

	observability.Register(router, cfg.Observability)

	router.MethodNotAllowedHandler = nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		httpError(w, "method not allowed", nethttp.StatusMethodNotAllowed)
	})

	return router
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sim.ErrUnknownAgent):
		return nethttp.StatusNotFound
	case errors.Is(err, sim.ErrUnknownTarget), errors.Is(err, walk.ErrUnknownWalkType):
		return nethttp.StatusUnprocessableEntity
	default:
		return nethttp.StatusBadRequest
	}
}

func writeJSON(w nethttp.ResponseWriter, logger telemetry.Logger, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Printf("failed to encode response: %v", err)
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	nethttp.Error(w, msg, code)
}
