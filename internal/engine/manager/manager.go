package manager

import (
	"Go2NetSentry/internal/alerter"
	"Go2NetSentry/internal/config"
	"Go2NetSentry/internal/engine/detector"
	"Go2NetSentry/internal/metrics"
	"Go2NetSentry/internal/model"
	"Go2NetSentry/internal/notification"
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC health service name reported for the detector.
const HealthService = "go2netsentry.Detector"

// Manager drives the detection engine: once per tick interval it fetches
// the roster and counters, runs a tick and publishes the report.
type Manager struct {
	engine     *detector.Engine
	controller model.Controller
	writers    []model.Writer
	alerter    *alerter.Alerter
	health     *health.Server

	interval time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
}

// DetectorConfig converts the detector section of cfg.
func DetectorConfig(cfg *config.Config) (detector.Config, error) {
	banTime, err := cfg.BanTime()
	if err != nil {
		return detector.Config{}, err
	}
	return detector.Config{
		Bandwidth: cfg.Detector.Bandwidth,
		NumCycles: cfg.Detector.NumCycles,
		BanTime:   banTime,
	}, nil
}

// NewEngine builds a detection engine from the detector section of cfg.
func NewEngine(cfg *config.Config) (*detector.Engine, error) {
	dc, err := DetectorConfig(cfg)
	if err != nil {
		return nil, err
	}
	return detector.New(dc)
}

// NewManager creates a new Manager. hs may be nil when no gRPC surface runs.
func NewManager(cfg *config.Config, engine *detector.Engine, ctrl model.Controller, writers []model.Writer, hs *health.Server) (*Manager, error) {
	interval, err := cfg.TickInterval()
	if err != nil {
		return nil, err
	}

	var alertr *alerter.Alerter
	if cfg.Alerter.Enabled {
		if cfg.SMTP.Host != "" {
			alertInterval, err := cfg.AlertInterval()
			if err != nil {
				return nil, err
			}
			alertr, err = alerter.NewAlerter(alertInterval, cfg.Alerter.Burst, notification.NewEmailNotifier(cfg.SMTP), engine.Config().BanTime)
			if err != nil {
				return nil, fmt.Errorf("failed to create alerter: %w", err)
			}
			log.Println("Alerter enabled and initialized.")
		} else {
			log.Println("Alerter is enabled in config, but no notifiers are configured. Alerter will not run.")
		}
	}

	return &Manager{
		engine:     engine,
		controller: ctrl,
		writers:    writers,
		alerter:    alertr,
		health:     hs,
		interval:   interval,
		done:       make(chan struct{}),
	}, nil
}

// Engine returns the engine driven by the manager.
func (m *Manager) Engine() *detector.Engine {
	return m.engine
}

// Start launches the tick loop and the alerter.
func (m *Manager) Start() {
	if m.alerter != nil {
		m.alerter.Start()
	}
	m.wg.Add(1)
	go m.run()
	log.Printf("Manager started with tick interval %s, %d writer(s).", m.interval, len(m.writers))
}

func (m *Manager) run() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-m.done
		cancel()
	}()

	for {
		select {
		case <-ticker.C:
			if _, err := m.RunOnce(ctx); err != nil {
				log.Printf("ERROR: tick skipped: %v", err)
			}
		case <-m.done:
			log.Println("Tick loop shutting down.")
			return
		}
	}
}

// Stop halts the tick loop and flushes the alerter.
func (m *Manager) Stop() {
	log.Println("Manager stopping...")
	close(m.done)
	m.wg.Wait()

	if m.alerter != nil {
		m.alerter.Stop()
	}
	log.Println("Manager stopped.")
}

// RunOnce performs a single tick. A controller failure aborts the tick
// before the engine is touched.
func (m *Manager) RunOnce(ctx context.Context) (*model.Report, error) {
	start := time.Now()
	readings, err := GatherReadings(ctx, m.controller)
	if err != nil {
		metrics.TickFailures.Inc()
		m.setServing(false)
		return nil, err
	}

	report := m.engine.Tick(readings)
	metrics.TickDuration.Observe(time.Since(start).Seconds())
	metrics.TicksTotal.Inc()
	metrics.KnownHosts.Set(float64(len(report.Hosts)))
	metrics.BannedHosts.Set(float64(len(report.Banned)))
	metrics.BansTotal.Add(float64(len(report.NewlyBanned)))
	metrics.UnbansTotal.Add(float64(len(report.Unbanned)))
	m.setServing(true)

	m.publish(report)
	return report, nil
}

func (m *Manager) publish(report *model.Report) {
	for _, w := range m.writers {
		if err := w.Write(report); err != nil {
			metrics.WriterErrors.WithLabelValues(w.Name()).Inc()
			log.Printf("Error writing report of tick %d to %s: %v", report.Tick, w.Name(), err)
		}
	}
	if m.alerter != nil {
		m.alerter.Notify(report)
	}
}

func (m *Manager) setServing(ok bool) {
	if m.health == nil {
		return
	}
	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	m.health.SetServingStatus(HealthService, status)
}

// GatherReadings joins the active roster with the port counters of each
// host's device. Counters are fetched once per device. A host whose port has
// no counter yields a reading without one. A model.Snapshotter is read once
// for the whole gather.
func GatherReadings(ctx context.Context, ctrl model.Controller) ([]model.Reading, error) {
	if s, ok := ctrl.(model.Snapshotter); ok {
		snap, err := s.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot controller: %w", err)
		}
		ctrl = snap
	}

	hosts, err := ctrl.ListActiveHosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active hosts: %w", err)
	}

	counters := make(map[string]map[string]int64)
	readings := make([]model.Reading, 0, len(hosts))
	for _, loc := range hosts {
		ports, ok := counters[loc.Device]
		if !ok {
			list, err := ctrl.PortByteCounters(ctx, loc.Device)
			if err != nil {
				return nil, fmt.Errorf("failed to read port counters of device %s: %w", loc.Device, err)
			}
			ports = make(map[string]int64, len(list))
			for _, pc := range list {
				ports[pc.Port] = pc.BytesReceived
			}
			counters[loc.Device] = ports
		}

		bytes, has := ports[loc.Port]
		readings = append(readings, model.Reading{Host: loc.Host, CumulativeBytes: bytes, HasCounter: has})
	}
	return readings, nil
}
