package api

import (
	"Go2NetSentry/internal/engine/detector"
	"Go2NetSentry/internal/engine/manager"
	"Go2NetSentry/internal/model"
	"Go2NetSentry/internal/query"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fakeQuerier struct {
	events []query.BanEvent
	err    error
	host   model.HostID
	limit  int
}

func (q *fakeQuerier) BanHistory(ctx context.Context, host model.HostID, limit int) ([]query.BanEvent, error) {
	q.host, q.limit = host, limit
	return q.events, q.err
}

func newTestEngine(t *testing.T) *detector.Engine {
	t.Helper()
	e, err := detector.New(detector.DefaultConfig())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	e.Tick([]model.Reading{
		{Host: "00:00:00:00:00:01", CumulativeBytes: 2048, HasCounter: true},
		{Host: "00:00:00:00:00:02"},
	})
	return e
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func TestStatusAndHosts(t *testing.T) {
	router := NewHandler(newTestEngine(t), nil).Router()

	rec := do(t, router, http.MethodGet, "/api/v1/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var status StatusResponse
	decode(t, rec, &status)
	if status.Ticks != 1 || status.LimitKB != 700 || status.KnownHosts != 2 || status.BanTime != "10s" {
		t.Errorf("Unexpected status: %+v", status)
	}

	rec = do(t, router, http.MethodGet, "/api/v1/hosts")
	var hosts []model.HostRate
	decode(t, rec, &hosts)
	if len(hosts) != 2 || !hosts[0].Present || hosts[0].RateKB != 2 || hosts[1].Present {
		t.Errorf("Unexpected hosts: %+v", hosts)
	}
}

func TestSamples(t *testing.T) {
	router := NewHandler(newTestEngine(t), nil).Router()

	rec := do(t, router, http.MethodGet, "/api/v1/hosts/00-00-00-00-00-01/samples")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp SamplesResponse
	decode(t, rec, &resp)
	if resp.Host != "00:00:00:00:00:01" || len(resp.Samples) != 5 {
		t.Fatalf("Unexpected samples response: %+v", resp)
	}
	if resp.Samples[0] == nil || *resp.Samples[0] != 2 || resp.Samples[1] != nil {
		t.Errorf("Unexpected slots: %v", resp.Samples)
	}

	if rec := do(t, router, http.MethodGet, "/api/v1/hosts/00:00:00:00:00:99/samples"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown host, got %d", rec.Code)
	}
	if rec := do(t, router, http.MethodGet, "/api/v1/hosts/%20/samples"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank host, got %d", rec.Code)
	}
}

func TestBanUnban(t *testing.T) {
	engine := newTestEngine(t)
	router := NewHandler(engine, nil).Router()

	rec := do(t, router, http.MethodPut, "/api/v1/blacklist/00:00:00:00:00:02")
	var ban BanResponse
	decode(t, rec, &ban)
	if !ban.Banned || !ban.Changed {
		t.Errorf("Unexpected ban response: %+v", ban)
	}
	rec = do(t, router, http.MethodPut, "/api/v1/blacklist/00:00:00:00:00:02")
	decode(t, rec, &ban)
	if ban.Changed {
		t.Error("Second ban should not change the blacklist")
	}

	rec = do(t, router, http.MethodGet, "/api/v1/blacklist")
	var entries []model.BanEntry
	decode(t, rec, &entries)
	if len(entries) != 1 || entries[0].Host != "00:00:00:00:00:02" {
		t.Errorf("Unexpected blacklist: %+v", entries)
	}

	rec = do(t, router, http.MethodDelete, "/api/v1/blacklist/00:00:00:00:00:02")
	decode(t, rec, &ban)
	if ban.Banned || !ban.Changed || engine.IsBanned("00:00:00:00:00:02") {
		t.Errorf("Unban failed: %+v", ban)
	}
	rec = do(t, router, http.MethodDelete, "/api/v1/blacklist/00:00:00:00:00:02")
	if rec.Code != http.StatusOK {
		t.Errorf("Unbanning an absent host should succeed, got %d", rec.Code)
	}
	decode(t, rec, &ban)
	if ban.Changed {
		t.Error("Unbanning an absent host should not report a change")
	}
}

func TestHistory(t *testing.T) {
	engine := newTestEngine(t)

	if rec := do(t, NewHandler(engine, nil).Router(), http.MethodGet, "/api/v1/history/00:00:00:00:00:01"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without querier, got %d", rec.Code)
	}

	q := &fakeQuerier{events: []query.BanEvent{{EventID: "e1", Timestamp: time.Unix(0, 0), Tick: 6, Host: "00:00:00:00:00:01", Action: "ban"}}}
	router := NewHandler(engine, q).Router()
	rec := do(t, router, http.MethodGet, "/api/v1/history/00:00:00:00:00:01?limit=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var events []query.BanEvent
	decode(t, rec, &events)
	if len(events) != 1 || events[0].Action != "ban" || q.limit != 10 || q.host != "00:00:00:00:00:01" {
		t.Errorf("Unexpected history: %+v (limit %d)", events, q.limit)
	}

	if rec := do(t, router, http.MethodGet, "/api/v1/history/00:00:00:00:00:01?limit=x"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for invalid limit, got %d", rec.Code)
	}

	q.err = errors.New("clickhouse down")
	if rec := do(t, router, http.MethodGet, "/api/v1/history/00:00:00:00:00:01"); rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 on query failure, got %d", rec.Code)
	}
}

func TestMetricsRoute(t *testing.T) {
	rec := do(t, NewHandler(newTestEngine(t), nil).Router(), http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", rec.Code)
	}
}

func TestGRPCHealth(t *testing.T) {
	hs := NewHealthServer()
	s := NewGRPCServer(hs)
	defer s.Stop()

	addr, err := ServeGRPC(s, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ServeGRPC failed: %v", err)
	}
	conn, err := grpc.NewClient(addr.String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: manager.HealthService})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("Expected NOT_SERVING before the first tick, got %v", resp.Status)
	}

	hs.SetServingStatus(manager.HealthService, healthpb.HealthCheckResponse_SERVING)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: manager.HealthService})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("Expected SERVING, got %v", resp.Status)
	}
}
