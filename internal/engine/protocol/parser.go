package protocol

import (
	"Go2NetSentry/internal/model"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Frame holds the link-layer facts needed for per-host byte accounting.
type Frame struct {
	Timestamp time.Time
	Source    model.HostID
	Length    int
}

// ParseFrame uses gopacket to decode a raw Ethernet frame and extract its source MAC.
func ParseFrame(data []byte) (*Frame, error) {
	packet := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Lazy)

	frame := &Frame{
		Timestamp: time.Now(), // Overwritten by capture metadata when available
		Length:    len(data),
	}
	if meta := packet.Metadata(); meta != nil && !meta.Timestamp.IsZero() {
		frame.Timestamp = meta.Timestamp
	}

	l := packet.Layer(layers.LayerTypeEthernet)
	if l == nil {
		return nil, fmt.Errorf("not an ethernet frame")
	}
	eth := l.(*layers.Ethernet)

	// Group bit set: broadcast/multicast sources are never real hosts.
	if len(eth.SrcMAC) == 0 || eth.SrcMAC[0]&0x01 != 0 {
		return nil, fmt.Errorf("invalid source mac %s", eth.SrcMAC)
	}

	frame.Source = model.HostID(eth.SrcMAC.String())
	return frame, nil
}

// Tally accumulates the bytes each host has sent into the network, which is
// what a switch port reports as received bytes.
type Tally struct {
	mu    sync.RWMutex
	bytes map[model.HostID]int64
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{bytes: make(map[model.HostID]int64)}
}

// Observe parses data and adds its length to the source host. Frames that
// cannot be attributed to a host are ignored and reported via the error.
func (t *Tally) Observe(data []byte) error {
	frame, err := ParseFrame(data)
	if err != nil {
		return err
	}
	t.Add(frame.Source, int64(frame.Length))
	return nil
}

// Add credits n bytes to host.
func (t *Tally) Add(host model.HostID, n int64) {
	t.mu.Lock()
	t.bytes[host] += n
	t.mu.Unlock()
}

// Counters returns the cumulative byte count of every host seen, sorted by host.
func (t *Tally) Counters() []model.PortCounter {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]model.PortCounter, 0, len(t.bytes))
	for h, n := range t.bytes {
		out = append(out, model.PortCounter{Port: string(h), BytesReceived: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Port < out[j].Port })
	return out
}
