// Package replay runs recorded traffic through the detector. Capture time,
// not wall time, drives the ticks: each tick interval of frames becomes one
// observation cycle.
package replay

import (
	"Go2NetSentry/internal/controller/capture"
	"Go2NetSentry/internal/engine/detector"
	"Go2NetSentry/internal/engine/manager"
	"Go2NetSentry/internal/engine/protocol"
	"Go2NetSentry/internal/model"
	"context"
	"fmt"
	"time"

	"github.com/google/gopacket"
)

// ReportHandler receives the report of every replayed tick.
type ReportHandler func(report *model.Report)

// Replayer tallies frames and ticks the engine whenever capture time crosses
// a tick boundary.
type Replayer struct {
	engine   *detector.Engine
	tally    *protocol.Tally
	ctrl     *capture.Controller
	interval time.Duration
	handler  ReportHandler

	now  time.Time
	next time.Time
}

// New creates a replayer with a fresh engine using cfg.
func New(cfg detector.Config, device string, interval time.Duration, handler ReportHandler) (*Replayer, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("tick interval must be positive, got %s", interval)
	}
	tally := protocol.NewTally()
	r := &Replayer{
		tally:    tally,
		ctrl:     capture.New(device, tally),
		interval: interval,
		handler:  handler,
	}
	engine, err := detector.New(cfg, detector.WithClock(func() time.Time { return r.now }))
	if err != nil {
		return nil, err
	}
	r.engine = engine
	return r, nil
}

// Engine returns the engine fed by the replayer.
func (r *Replayer) Engine() *detector.Engine {
	return r.engine
}

// Observe accounts one frame, first closing every tick that ended before it.
func (r *Replayer) Observe(ci gopacket.CaptureInfo, data []byte) error {
	if r.next.IsZero() {
		r.next = ci.Timestamp.Add(r.interval)
	}
	for !ci.Timestamp.Before(r.next) {
		if err := r.tick(r.next); err != nil {
			return err
		}
		r.next = r.next.Add(r.interval)
	}
	return r.tally.Observe(data)
}

// Finish closes the final, possibly partial, tick.
func (r *Replayer) Finish() error {
	if r.next.IsZero() {
		return nil
	}
	return r.tick(r.next)
}

func (r *Replayer) tick(at time.Time) error {
	readings, err := manager.GatherReadings(context.Background(), r.ctrl)
	if err != nil {
		return err
	}
	r.now = at
	report := r.engine.Tick(readings)
	if r.handler != nil {
		r.handler(report)
	}
	return nil
}
