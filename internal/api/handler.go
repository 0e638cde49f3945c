// Package api exposes the detector state over HTTP and its health over gRPC.
package api

import (
	"Go2NetSentry/internal/engine/detector"
	"Go2NetSentry/internal/metrics"
	"Go2NetSentry/internal/model"
	"Go2NetSentry/internal/query"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// StatusResponse is returned by GET /api/v1/status.
type StatusResponse struct {
	Ticks       uint64 `json:"ticks"`
	Bandwidth   int64  `json:"bandwidth_kb"`
	NumCycles   int    `json:"num_cycles"`
	LimitKB     int64  `json:"limit_kb"`
	BanTime     string `json:"ban_time"`
	KnownHosts  int    `json:"known_hosts"`
	BannedHosts int    `json:"banned_hosts"`
}

// SamplesResponse is returned by GET /api/v1/hosts/{host}/samples. Absent
// slots are null.
type SamplesResponse struct {
	Host    model.HostID `json:"host"`
	Samples []*int64     `json:"samples"`
}

// BanResponse is returned by PUT and DELETE on /api/v1/blacklist/{host}.
type BanResponse struct {
	Host    model.HostID `json:"host"`
	Banned  bool         `json:"banned"`
	Changed bool         `json:"changed"`
}

// Handler holds the dependencies for API handlers.
type Handler struct {
	engine  *detector.Engine
	querier query.Querier
}

// NewHandler creates the HTTP API. querier may be nil when no ClickHouse
// writer is configured; the history route then answers 503.
func NewHandler(engine *detector.Engine, querier query.Querier) *Handler {
	return &Handler{engine: engine, querier: querier}
}

// Router returns the routes of the API plus /metrics.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/status", h.statusHandler).Methods(http.MethodGet)
	v1.HandleFunc("/hosts", h.hostsHandler).Methods(http.MethodGet)
	v1.HandleFunc("/hosts/{host}/samples", h.samplesHandler).Methods(http.MethodGet)
	v1.HandleFunc("/blacklist", h.blacklistHandler).Methods(http.MethodGet)
	v1.HandleFunc("/blacklist/{host}", h.banHandler).Methods(http.MethodPut)
	v1.HandleFunc("/blacklist/{host}", h.unbanHandler).Methods(http.MethodDelete)
	v1.HandleFunc("/history/{host}", h.historyHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler())
	return r
}

func (h *Handler) statusHandler(w http.ResponseWriter, r *http.Request) {
	cfg := h.engine.Config()
	writeJSON(w, http.StatusOK, StatusResponse{
		Ticks:       h.engine.Ticks(),
		Bandwidth:   cfg.Bandwidth,
		NumCycles:   cfg.NumCycles,
		LimitKB:     cfg.Limit(),
		BanTime:     cfg.BanTime.String(),
		KnownHosts:  len(h.engine.KnownHosts()),
		BannedHosts: len(h.engine.Banned()),
	})
}

func (h *Handler) hostsHandler(w http.ResponseWriter, r *http.Request) {
	hosts := h.engine.Snapshot().Hosts
	if hosts == nil {
		hosts = []model.HostRate{}
	}
	writeJSON(w, http.StatusOK, hosts)
}

func (h *Handler) samplesHandler(w http.ResponseWriter, r *http.Request) {
	host, ok := hostParam(w, r)
	if !ok {
		return
	}
	samples, known := h.engine.Window(host)
	if !known {
		http.Error(w, fmt.Sprintf("host %s has never been observed", host), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, SamplesResponse{Host: host, Samples: samples})
}

func (h *Handler) blacklistHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Banned())
}

func (h *Handler) banHandler(w http.ResponseWriter, r *http.Request) {
	host, ok := hostParam(w, r)
	if !ok {
		return
	}
	changed := h.engine.Ban(host)
	if changed {
		log.Printf("INFO: host %s banned via API.", host)
	}
	writeJSON(w, http.StatusOK, BanResponse{Host: host, Banned: true, Changed: changed})
}

func (h *Handler) unbanHandler(w http.ResponseWriter, r *http.Request) {
	host, ok := hostParam(w, r)
	if !ok {
		return
	}
	changed := h.engine.Unban(host)
	if changed {
		log.Printf("INFO: host %s unbanned via API.", host)
	}
	writeJSON(w, http.StatusOK, BanResponse{Host: host, Banned: false, Changed: changed})
}

func (h *Handler) historyHandler(w http.ResponseWriter, r *http.Request) {
	if h.querier == nil {
		http.Error(w, "ban history requires an enabled clickhouse writer", http.StatusServiceUnavailable)
		return
	}
	host, ok := hostParam(w, r)
	if !ok {
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, fmt.Sprintf("invalid limit %q", s), http.StatusBadRequest)
			return
		}
		limit = n
	}

	events, err := h.querier.BanHistory(r.Context(), host, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to query ban history: %v", err), http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []query.BanEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func hostParam(w http.ResponseWriter, r *http.Request) (model.HostID, bool) {
	host, err := model.ParseHostID(mux.Vars(r)["host"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return host, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to marshal response: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonBytes)
}
