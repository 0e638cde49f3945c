// Package detector implements the sliding-window bandwidth rule and owns
// the ledger and blacklist it mutates.
//
// Each Tick records one sample per roster host, then compares the sample
// just written with the oldest one in the host's window. A host whose
// growth exceeds Bandwidth*NumCycles KB is banned. Evaluation starts only
// once more than NumCycles ticks have completed. Bans are never lifted by
// the rule; only an explicit Unban removes a host.
package detector

import (
	"Go2NetSentry/internal/engine/blacklist"
	"Go2NetSentry/internal/engine/ledger"
	"Go2NetSentry/internal/model"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrInvalidConfig is returned by New for non-positive thresholds.
var ErrInvalidConfig = errors.New("invalid detector config")

const (
	DefaultBandwidth = 140
	DefaultNumCycles = 5
	DefaultBanTime   = 10 * time.Second
)

// Config holds the rule thresholds.
type Config struct {
	// Bandwidth is the per-cycle threshold in KB.
	Bandwidth int64
	// NumCycles is the window size in ticks.
	NumCycles int
	// BanTime is advisory: it is reported but never expires a ban.
	BanTime time.Duration
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		Bandwidth: DefaultBandwidth,
		NumCycles: DefaultNumCycles,
		BanTime:   DefaultBanTime,
	}
}

// Limit returns the delta that must be exceeded for a ban.
func (c Config) Limit() int64 {
	return c.Bandwidth * int64(c.NumCycles)
}

// Engine is the detection state machine. All methods are safe for
// concurrent use; a tick is applied atomically with respect to queries.
type Engine struct {
	mu        sync.Mutex
	cfg       Config
	ledger    *ledger.Ledger
	blacklist *blacklist.Blacklist
	tick      uint64
	// Manual changes since the last tick, announced in its report.
	banned   []model.HostID
	unbanned []model.HostID
	now       func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock sets the time source used for ban and report timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an engine with empty state.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Bandwidth <= 0 {
		return nil, fmt.Errorf("%w: bandwidth must be positive, got %d", ErrInvalidConfig, cfg.Bandwidth)
	}
	if cfg.NumCycles <= 0 {
		return nil, fmt.Errorf("%w: num_cycles must be positive, got %d", ErrInvalidConfig, cfg.NumCycles)
	}
	e := &Engine{
		cfg:       cfg,
		ledger:    ledger.New(cfg.NumCycles),
		blacklist: blacklist.New(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Config returns the thresholds the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Tick applies one observation cycle: it records a sample for every reading
// that carries a counter, evaluates the rule for every reading, then
// advances the tick counter. The returned report reflects the state after
// the tick with the number of the tick that produced it.
func (e *Engine) Tick(readings []model.Reading) *model.Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	newlyBanned := e.banned
	e.banned = nil

	for _, r := range readings {
		e.ledger.Touch(r.Host)
		if r.HasCounter {
			e.ledger.RecordSample(r.Host, e.tick, r.CumulativeBytes)
		}

		if !e.exceeds(r.Host) || e.blacklist.IsBanned(r.Host) {
			continue
		}
		e.blacklist.Ban(r.Host, now, e.tick)
		newlyBanned = append(newlyBanned, r.Host)
		log.Printf("Warning: host %s exceeded %d KB over %d cycles at tick %d, banned.", r.Host, e.cfg.Limit(), e.cfg.NumCycles, e.tick)
	}

	report := e.snapshotLocked(e.tick, now)
	report.NewlyBanned = newlyBanned
	report.Unbanned = e.unbanned
	e.unbanned = nil

	e.tick++
	return report
}

// exceeds evaluates the window rule for host at the current tick. Missing
// samples, and any tick before the window has fully warmed up, yield false.
func (e *Engine) exceeds(host model.HostID) bool {
	size := e.cfg.NumCycles
	if e.tick <= uint64(size) {
		return false
	}

	current, ok := e.ledger.GetSample(host, ledger.SlotFor(e.tick, size))
	if !ok {
		return false
	}
	oldest, ok := e.ledger.GetSample(host, ledger.OldestSlot(e.tick, size))
	if !ok {
		return false
	}
	return current-oldest > e.cfg.Limit()
}

// Ban adds host to the blacklist outside the rule. It reports whether the
// host was newly added. The ban is announced in the next tick's report
// unless it only reverts an unban made since the last tick.
func (e *Engine) Ban(host model.HostID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.blacklist.Ban(host, e.now(), e.tick) {
		return false
	}
	var reverted bool
	if e.unbanned, reverted = without(e.unbanned, host); !reverted {
		e.banned = append(e.banned, host)
	}
	return true
}

// Unban removes host from the blacklist and reports whether it was banned.
// The removal is announced in the next tick's report unless it only reverts
// a manual ban made since the last tick.
func (e *Engine) Unban(host model.HostID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.blacklist.Unban(host) {
		return false
	}
	var reverted bool
	if e.banned, reverted = without(e.banned, host); !reverted {
		e.unbanned = append(e.unbanned, host)
	}
	return true
}

// without removes host from hosts and reports whether it was present.
func without(hosts []model.HostID, host model.HostID) ([]model.HostID, bool) {
	for i, h := range hosts {
		if h == host {
			return append(hosts[:i], hosts[i+1:]...), true
		}
	}
	return hosts, false
}

// IsBanned reports whether host is blacklisted.
func (e *Engine) IsBanned(host model.HostID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.blacklist.IsBanned(host)
}

// Banned returns the blacklist in ban order.
func (e *Engine) Banned() []model.BanEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bannedLocked()
}

// Sample returns the stored KB value at index of host's window.
func (e *Engine) Sample(host model.HostID, index int) (int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.GetSample(host, index)
}

// Window returns a copy of host's window slots, nil entries being absent.
// The second result is false for a never-observed host.
func (e *Engine) Window(host model.HostID) ([]*int64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	w := e.ledger.Window(host)
	if w == nil {
		return nil, false
	}
	return w.Values(), true
}

// KnownHosts returns every host ever observed.
func (e *Engine) KnownHosts() []model.HostID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.KnownHosts()
}

// Ticks returns the number of completed ticks.
func (e *Engine) Ticks() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Snapshot returns the state as of the last completed tick, labelled with
// that tick's number. Before the first tick it reports tick 0 with an empty
// host list.
func (e *Engine) Snapshot() *model.Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tick == 0 {
		return &model.Report{Timestamp: e.now(), Banned: e.bannedLocked()}
	}
	return e.snapshotLocked(e.tick-1, e.now())
}

// snapshotLocked renders the slot of tick for every known host.
func (e *Engine) snapshotLocked(tick uint64, now time.Time) *model.Report {
	slot := ledger.SlotFor(tick, e.cfg.NumCycles)
	hosts := e.ledger.KnownHosts()
	rates := make([]model.HostRate, 0, len(hosts))
	for _, h := range hosts {
		v, ok := e.ledger.GetSample(h, slot)
		rates = append(rates, model.HostRate{Host: h, RateKB: v, Present: ok})
	}
	return &model.Report{
		Tick:      tick,
		Timestamp: now,
		Hosts:     rates,
		Banned:    e.bannedLocked(),
	}
}

func (e *Engine) bannedLocked() []model.BanEntry {
	entries := e.blacklist.List()
	out := make([]model.BanEntry, len(entries))
	for i, en := range entries {
		out[i] = model.BanEntry{Host: en.Host, BannedAt: en.BannedAt, Tick: en.Tick}
	}
	return out
}
