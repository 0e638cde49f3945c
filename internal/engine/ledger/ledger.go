// Package ledger keeps the per-host sample history used by the detector.
//
// A Ledger is not safe for concurrent use; the detector engine serialises
// every access under its own lock.
package ledger

import (
	"Go2NetSentry/internal/model"
	"sort"
)

// BytesPerKB is the divisor applied to cumulative counters before storage.
const BytesPerKB = 1024

// Ledger maps each host ever observed to its sample window.
type Ledger struct {
	size    int
	windows map[model.HostID]*Window
}

// New creates a ledger whose windows hold size samples.
func New(size int) *Ledger {
	if size <= 0 {
		size = 1
	}
	return &Ledger{
		size:    size,
		windows: make(map[model.HostID]*Window),
	}
}

// Touch returns the window of host, allocating an empty one on first sight.
func (l *Ledger) Touch(host model.HostID) *Window {
	w, ok := l.windows[host]
	if !ok {
		w = NewWindow(l.size)
		l.windows[host] = w
	}
	return w
}

// RecordSample stores cumulativeBytes/1024 in the slot of tick for host.
// The counter is stored as-is, not as the difference to the previous one.
func (l *Ledger) RecordSample(host model.HostID, tick uint64, cumulativeBytes int64) {
	l.Touch(host).Put(SlotFor(tick, l.size), cumulativeBytes/BytesPerKB)
}

// GetSample returns the value at index of host's window. The second result
// is false for an unknown host, an unwritten slot or an out-of-range index.
func (l *Ledger) GetSample(host model.HostID, index int) (int64, bool) {
	w, ok := l.windows[host]
	if !ok {
		return 0, false
	}
	return w.Get(index)
}

// Window returns the window of host, or nil if it was never observed.
func (l *Ledger) Window(host model.HostID) *Window {
	return l.windows[host]
}

// KnownHosts returns every host ever observed, sorted.
func (l *Ledger) KnownHosts() []model.HostID {
	hosts := make([]model.HostID, 0, len(l.windows))
	for h := range l.windows {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i] < hosts[j] })
	return hosts
}
