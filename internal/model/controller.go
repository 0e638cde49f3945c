package model

import "context"

// Controller is the network-controller boundary that supplies the host
// roster and per-port byte counters.
type Controller interface {
	// ListActiveHosts returns the hosts currently attached to the network.
	ListActiveHosts(ctx context.Context) ([]HostLocation, error)

	// PortByteCounters returns the cumulative counters of every port of a device.
	PortByteCounters(ctx context.Context, device string) ([]PortCounter, error)
}

// Snapshotter is implemented by controllers whose state can be read once
// and served for a whole tick. The returned Controller answers from that
// single read.
type Snapshotter interface {
	Snapshot(ctx context.Context) (Controller, error)
}
