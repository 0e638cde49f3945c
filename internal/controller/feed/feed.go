// Package feed implements a controller fed by ns-probe agents over NATS.
package feed

import (
	"Go2NetSentry/internal/config"
	"Go2NetSentry/internal/factory"
	"Go2NetSentry/internal/model"
	"Go2NetSentry/internal/probe"
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

func init() {
	factory.RegisterController("feed", func(cfg *config.Config) (model.Controller, error) {
		natsURL, subject := cfg.Controller.Feed.NATSURL, cfg.Controller.Feed.Subject
		if natsURL == "" {
			natsURL = cfg.Probe.NATSURL
		}
		if subject == "" {
			subject = cfg.Probe.Subject
		}
		if natsURL == "" || subject == "" {
			return nil, fmt.Errorf("controller.feed needs a nats_url and subject")
		}
		interval, err := cfg.PublishInterval()
		if err != nil {
			return nil, err
		}
		return Open(natsURL, subject, StaleIntervals*interval)
	})
}

// StaleIntervals is the number of missed publish intervals after which a
// device's report is dropped.
const StaleIntervals = 3

// Store keeps the latest counter report of every device. Reports not
// refreshed within maxAge are dropped, so a silent device's hosts leave the
// roster.
type Store struct {
	mu      sync.Mutex
	maxAge  time.Duration
	now     func() time.Time
	reports map[string]entry
}

type entry struct {
	report   *probe.CounterReport
	received time.Time
}

// NewStore creates an empty store. A non-positive maxAge keeps reports
// forever.
func NewStore(maxAge time.Duration) *Store {
	return &Store{
		maxAge:  maxAge,
		now:     time.Now,
		reports: make(map[string]entry),
	}
}

// Apply replaces the report of r.Device unless r is older than the stored one.
func (s *Store) Apply(r *probe.CounterReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.reports[r.Device]; ok && r.Timestamp.Before(prev.report.Timestamp) {
		return
	}
	s.reports[r.Device] = entry{report: r, received: s.now()}
}

// expireLocked drops reports older than maxAge.
func (s *Store) expireLocked() {
	if s.maxAge <= 0 {
		return
	}
	cutoff := s.now().Add(-s.maxAge)
	for d, e := range s.reports {
		if e.received.Before(cutoff) {
			log.Printf("Warning: no counter report from %s since %s, dropping its hosts", d, e.received.Format(time.RFC3339))
			delete(s.reports, d)
		}
	}
}

// ListActiveHosts returns the hosts of every device, devices sorted by name.
func (s *Store) ListActiveHosts(ctx context.Context) ([]model.HostLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()

	devices := make([]string, 0, len(s.reports))
	for d := range s.reports {
		devices = append(devices, d)
	}
	sort.Strings(devices)

	var hosts []model.HostLocation
	for _, d := range devices {
		hosts = append(hosts, s.reports[d].report.Hosts...)
	}
	return hosts, nil
}

// PortByteCounters returns the last reported counters of device.
func (s *Store) PortByteCounters(ctx context.Context, device string) ([]model.PortCounter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked()
	e, ok := s.reports[device]
	if !ok {
		return nil, nil
	}
	out := make([]model.PortCounter, len(e.report.Ports))
	copy(out, e.report.Ports)
	return out, nil
}

// Controller is a Store kept current by a NATS subscription.
type Controller struct {
	*Store
	sub *probe.Subscriber
}

// Open subscribes to subject and starts applying reports. Reports older
// than maxAge are dropped.
func Open(natsURL, subject string, maxAge time.Duration) (*Controller, error) {
	sub, err := probe.NewSubscriber(natsURL, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	c := &Controller{Store: NewStore(maxAge), sub: sub}
	if err := sub.Start(c.Apply); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to '%s': %w", subject, err)
	}
	return c, nil
}

// Close stops the subscription.
func (c *Controller) Close() error {
	c.sub.Close()
	return nil
}
