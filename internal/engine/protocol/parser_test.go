package protocol

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

func buildFrame(t *testing.T, src, dst string, payload int) []byte {
	t.Helper()
	srcMAC, _ := net.ParseMAC(src)
	dstMAC, _ := net.ParseMAC(dst)

	eth := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.ParseIP("10.0.0.1"),
		DstIP:    net.ParseIP("10.0.0.2"),
	}
	udp := &layers.UDP{SrcPort: 12345, DstPort: 53}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatalf("Failed to set network layer: %v", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(make([]byte, payload))); err != nil {
		t.Fatalf("Failed to serialize frame: %v", err)
	}
	return buf.Bytes()
}

func TestParseFrame(t *testing.T) {
	data := buildFrame(t, "00:00:00:00:00:01", "00:00:00:00:00:02", 100)

	frame, err := ParseFrame(data)
	if err != nil {
		t.Fatalf("ParseFrame failed: %v", err)
	}
	if frame.Source != "00:00:00:00:00:01" {
		t.Errorf("Expected source 00:00:00:00:00:01, got %s", frame.Source)
	}
	if frame.Length != len(data) {
		t.Errorf("Expected length %d, got %d", len(data), frame.Length)
	}
}

func TestParseFrame_Rejects(t *testing.T) {
	if _, err := ParseFrame([]byte{0x01, 0x02}); err == nil {
		t.Error("Truncated frame should be rejected")
	}

	multicast := buildFrame(t, "01:00:5e:00:00:01", "00:00:00:00:00:02", 10)
	if _, err := ParseFrame(multicast); err == nil {
		t.Error("Multicast source should be rejected")
	}
}

func TestTally(t *testing.T) {
	tally := NewTally()

	a := buildFrame(t, "00:00:00:00:00:0a", "00:00:00:00:00:02", 1000)
	b := buildFrame(t, "00:00:00:00:00:0b", "00:00:00:00:00:02", 10)

	for i := 0; i < 3; i++ {
		if err := tally.Observe(a); err != nil {
			t.Fatalf("Observe failed: %v", err)
		}
	}
	if err := tally.Observe(b); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if err := tally.Observe([]byte{0xff}); err == nil {
		t.Error("Garbage should be reported")
	}

	counters := tally.Counters()
	if len(counters) != 2 {
		t.Fatalf("Expected 2 counters, got %d", len(counters))
	}
	if counters[0].Port != "00:00:00:00:00:0a" || counters[0].BytesReceived != int64(3*len(a)) {
		t.Errorf("Unexpected counter for host a: %+v", counters[0])
	}
	if counters[1].Port != "00:00:00:00:00:0b" || counters[1].BytesReceived != int64(len(b)) {
		t.Errorf("Unexpected counter for host b: %+v", counters[1])
	}
}
