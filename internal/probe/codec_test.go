package probe

import (
	"Go2NetSentry/internal/model"
	"testing"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEncodeDecode(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 123, time.UTC)
	in := &CounterReport{
		Device:    "eth0",
		Timestamp: ts,
		Hosts: []model.HostLocation{
			{Host: "00:00:00:00:00:01", Device: "eth0", Port: "00:00:00:00:00:01"},
		},
		Ports: []model.PortCounter{
			{Port: "00:00:00:00:00:01", BytesReceived: 1 << 40},
		},
	}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if out.Device != "eth0" || !out.Timestamp.Equal(ts) {
		t.Errorf("Header mismatch: %+v", out)
	}
	if len(out.Hosts) != 1 || out.Hosts[0] != in.Hosts[0] {
		t.Errorf("Hosts mismatch: %+v", out.Hosts)
	}
	if len(out.Ports) != 1 || out.Ports[0].BytesReceived != 1<<40 {
		t.Errorf("Ports mismatch: %+v", out.Ports)
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0xff, 0xff}); err == nil {
		t.Error("Expected error for garbage payload")
	}

	msg, _ := structpb.NewStruct(map[string]interface{}{"hosts": []interface{}{}})
	data, _ := proto.Marshal(msg)
	if _, err := Decode(data); err == nil {
		t.Error("Expected error for a report without device")
	}
}
