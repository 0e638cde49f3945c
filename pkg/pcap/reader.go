package pcap

import (
	"context"
	"fmt"
	"log"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// PacketHandler receives each captured frame with its capture metadata.
type PacketHandler func(ci gopacket.CaptureInfo, data []byte) error

// Reader reads frames from a pcap file or a live interface.
type Reader struct {
	handle *pcap.Handle
	source string
}

// NewReader creates a new pcap reader for the given file path.
func NewReader(filePath string) (*Reader, error) {
	handle, err := pcap.OpenOffline(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file '%s': %w", filePath, err)
	}
	return &Reader{handle: handle, source: filePath}, nil
}

// NewLiveReader opens a live capture on iface.
func NewLiveReader(iface string, snapshotLen int32, promiscuous bool) (*Reader, error) {
	handle, err := pcap.OpenLive(iface, snapshotLen, promiscuous, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("failed to open device '%s': %w", iface, err)
	}
	return &Reader{handle: handle, source: iface}, nil
}

// Close closes the pcap handle.
func (r *Reader) Close() {
	r.handle.Close()
}

// LinkType returns the link type of the capture source.
func (r *Reader) LinkType() layers.LinkType {
	return r.handle.LinkType()
}

// ReadPackets hands every frame to fn until the source is exhausted or ctx
// is cancelled. Handler errors are logged periodically and do not stop the
// read.
func (r *Reader) ReadPackets(ctx context.Context, fn PacketHandler) (int, error) {
	packetSource := gopacket.NewPacketSource(r.handle, r.handle.LinkType())
	packets := packetSource.Packets()

	count, failed := 0, 0
	for {
		select {
		case <-ctx.Done():
			return count, ctx.Err()
		case packet, ok := <-packets:
			if !ok {
				if failed > 0 {
					log.Printf("Skipped %d unattributable frames from %s", failed, r.source)
				}
				return count, nil
			}
			if err := fn(packet.Metadata().CaptureInfo, packet.Data()); err != nil {
				// Unsupported link types or corrupt data.
				failed++
				if failed%10000 == 1 {
					log.Printf("Error handling frame from %s: %v", r.source, err)
				}
				continue
			}
			count++
		}
	}
}
