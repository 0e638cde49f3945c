// Package capture implements a controller that derives hosts and counters
// from sniffed traffic instead of querying switch statistics. Every source
// MAC seen becomes a host attached to a virtual port named after itself.
package capture

import (
	"Go2NetSentry/internal/config"
	"Go2NetSentry/internal/engine/protocol"
	"Go2NetSentry/internal/factory"
	"Go2NetSentry/internal/model"
	"Go2NetSentry/pkg/pcap"
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/google/gopacket"
)

func init() {
	factory.RegisterController("capture", func(cfg *config.Config) (model.Controller, error) {
		return Open(cfg.Controller.Capture)
	})
}

// Controller implements model.Controller over a byte tally.
type Controller struct {
	device string
	tally  *protocol.Tally

	reader   *pcap.Reader
	archiver *pcap.Archiver
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a controller over an existing tally, reported as device.
func New(device string, tally *protocol.Tally) *Controller {
	return &Controller{device: device, tally: tally}
}

// Open starts capturing from a live interface or, when PcapFile is set,
// replays the file once.
func Open(cfg config.CaptureConfig) (*Controller, error) {
	var (
		reader *pcap.Reader
		device string
		err    error
	)
	switch {
	case cfg.PcapFile != "":
		reader, err = pcap.NewReader(cfg.PcapFile)
		device = filepath.Base(cfg.PcapFile)
	case cfg.Interface != "":
		reader, err = pcap.NewLiveReader(cfg.Interface, cfg.SnapshotLen, cfg.Promiscuous)
		device = cfg.Interface
	default:
		return nil, fmt.Errorf("controller.capture needs an interface or a pcap_file")
	}
	if err != nil {
		return nil, err
	}

	c := New(device, protocol.NewTally())
	c.reader = reader
	if cfg.ArchivePath != "" {
		snapLen := uint32(cfg.SnapshotLen)
		if snapLen == 0 {
			snapLen = 1600
		}
		c.archiver, err = pcap.NewArchiver(cfg.ArchivePath, snapLen, reader.LinkType())
		if err != nil {
			reader.Close()
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		n, err := reader.ReadPackets(ctx, c.observe)
		if err != nil && ctx.Err() == nil {
			log.Printf("ERROR: capture on %s stopped: %v", device, err)
			return
		}
		log.Printf("Capture on %s finished after %d frames.", device, n)
	}()
	log.Printf("Capture started on %s.", device)
	return c, nil
}

func (c *Controller) observe(ci gopacket.CaptureInfo, data []byte) error {
	if c.archiver != nil {
		c.archiver.Enqueue(ci, data)
	}
	return c.tally.Observe(data)
}

// Device returns the device name hosts are reported on.
func (c *Controller) Device() string {
	return c.device
}

// ListActiveHosts returns every source MAC seen so far.
func (c *Controller) ListActiveHosts(ctx context.Context) ([]model.HostLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	counters := c.tally.Counters()
	hosts := make([]model.HostLocation, len(counters))
	for i, pc := range counters {
		hosts[i] = model.HostLocation{Host: model.HostID(pc.Port), Device: c.device, Port: pc.Port}
	}
	return hosts, nil
}

// PortByteCounters returns the tally when device is the capture device.
func (c *Controller) PortByteCounters(ctx context.Context, device string) ([]model.PortCounter, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if device != c.device {
		return nil, nil
	}
	return c.tally.Counters(), nil
}

// Close stops the capture goroutine and releases the handle.
func (c *Controller) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if c.reader != nil {
		c.reader.Close()
	}
	if c.archiver != nil {
		return c.archiver.Close()
	}
	return nil
}
