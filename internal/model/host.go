package model

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrInvalidHostID is returned when a host identifier is empty.
var ErrInvalidHostID = errors.New("invalid host id")

// HostID identifies a network host. In practice it is a lower-case,
// colon-separated MAC address.
type HostID string

// ParseHostID normalises s. MAC addresses in any notation accepted by
// net.ParseMAC are rewritten to canonical form; other non-empty values are
// kept as-is so controllers with their own id schemes still work.
func ParseHostID(s string) (HostID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidHostID)
	}
	if mac, err := net.ParseMAC(s); err == nil {
		return HostID(mac.String()), nil
	}
	return HostID(s), nil
}

func (h HostID) String() string {
	return string(h)
}

// HostLocation is one entry of the active host roster: the host and the
// device port it is attached to.
type HostLocation struct {
	Host   HostID
	Device string
	Port   string
}

// PortCounter is the cumulative received-byte counter of one device port.
type PortCounter struct {
	Port          string
	BytesReceived int64
}

// Reading is a roster entry joined with its port counter for one tick.
// HasCounter is false when the device reported no counter for the host's port.
type Reading struct {
	Host            HostID
	CumulativeBytes int64
	HasCounter      bool
}
