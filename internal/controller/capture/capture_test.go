package capture

import (
	"Go2NetSentry/internal/config"
	"Go2NetSentry/internal/engine/protocol"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func TestController(t *testing.T) {
	ctx := context.Background()
	tally := protocol.NewTally()
	tally.Add("00:00:00:00:00:02", 4096)
	tally.Add("00:00:00:00:00:01", 1024)
	tally.Add("00:00:00:00:00:01", 1024)

	c := New("eth0", tally)

	hosts, err := c.ListActiveHosts(ctx)
	if err != nil {
		t.Fatalf("ListActiveHosts failed: %v", err)
	}
	if len(hosts) != 2 {
		t.Fatalf("Expected 2 hosts, got %d", len(hosts))
	}
	if hosts[0].Host != "00:00:00:00:00:01" || hosts[0].Device != "eth0" || hosts[0].Port != "00:00:00:00:00:01" {
		t.Errorf("Unexpected host location: %+v", hosts[0])
	}

	counters, err := c.PortByteCounters(ctx, "eth0")
	if err != nil {
		t.Fatalf("PortByteCounters failed: %v", err)
	}
	if len(counters) != 2 || counters[0].BytesReceived != 2048 {
		t.Errorf("Unexpected counters: %+v", counters)
	}

	if counters, _ := c.PortByteCounters(ctx, "eth1"); len(counters) != 0 {
		t.Errorf("Other devices should have no counters, got %v", counters)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestOpen_RequiresSource(t *testing.T) {
	if _, err := Open(config.CaptureConfig{}); err == nil {
		t.Error("Expected error without interface or pcap file")
	}
}

func writePcap(t *testing.T, src string, frames, payload int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "replay.pcap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create pcap: %v", err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(1600, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}
	srcMAC, _ := net.ParseMAC(src)
	dstMAC, _ := net.ParseMAC("00:00:00:00:00:ff")
	for i := 0; i < frames; i++ {
		buf := gopacket.NewSerializeBuffer()
		eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
		if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, eth, gopacket.Payload(make([]byte, payload))); err != nil {
			t.Fatalf("Failed to serialize: %v", err)
		}
		ci := gopacket.CaptureInfo{Timestamp: time.Unix(int64(i), 0), CaptureLength: len(buf.Bytes()), Length: len(buf.Bytes())}
		if err := w.WritePacket(ci, buf.Bytes()); err != nil {
			t.Fatalf("Failed to write frame: %v", err)
		}
	}
	return path
}

func TestOpen_PcapFileWithArchive(t *testing.T) {
	path := writePcap(t, "00:00:00:00:00:0a", 3, 100)
	archiveDir := filepath.Join(t.TempDir(), "archive")

	c, err := Open(config.CaptureConfig{PcapFile: path, ArchivePath: archiveDir})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if c.Device() != "replay.pcap" {
		t.Errorf("Unexpected device name %s", c.Device())
	}

	want := int64(3 * (14 + 100))
	deadline := time.Now().Add(2 * time.Second)
	var got int64
	for time.Now().Before(deadline) {
		counters, _ := c.PortByteCounters(context.Background(), c.Device())
		if len(counters) == 1 {
			got = counters[0].BytesReceived
			if got == want {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got != want {
		t.Fatalf("Expected %d bytes tallied, got %d", want, got)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	entries, err := os.ReadDir(archiveDir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("Expected one archive file, got %v (%v)", entries, err)
	}
}
