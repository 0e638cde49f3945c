package probe

import (
	"Go2NetSentry/internal/model"
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// CounterReport is what a probe publishes for one device: the hosts it sees
// and the cumulative counter of every port.
type CounterReport struct {
	Device    string
	Timestamp time.Time
	Hosts     []model.HostLocation
	Ports     []model.PortCounter
}

// Encode serializes a report as a protobuf Struct.
func Encode(r *CounterReport) ([]byte, error) {
	hosts := make([]interface{}, len(r.Hosts))
	for i, h := range r.Hosts {
		hosts[i] = map[string]interface{}{"host": string(h.Host), "port": h.Port}
	}
	ports := make([]interface{}, len(r.Ports))
	for i, p := range r.Ports {
		// Struct numbers are doubles; counters stay exact below 2^53 bytes.
		ports[i] = map[string]interface{}{"port": p.Port, "bytes_received": float64(p.BytesReceived)}
	}

	msg, err := structpb.NewStruct(map[string]interface{}{
		"device":    r.Device,
		"timestamp": r.Timestamp.UTC().Format(time.RFC3339Nano),
		"hosts":     hosts,
		"ports":     ports,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build report struct: %w", err)
	}
	return proto.Marshal(msg)
}

// Decode parses a payload produced by Encode.
func Decode(data []byte) (*CounterReport, error) {
	var msg structpb.Struct
	if err := proto.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	fields := msg.GetFields()

	r := &CounterReport{Device: fields["device"].GetStringValue()}
	if r.Device == "" {
		return nil, fmt.Errorf("report has no device")
	}
	if ts := fields["timestamp"].GetStringValue(); ts != "" {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("invalid report timestamp: %w", err)
		}
		r.Timestamp = t
	}

	for _, v := range fields["hosts"].GetListValue().GetValues() {
		hf := v.GetStructValue().GetFields()
		id, err := model.ParseHostID(hf["host"].GetStringValue())
		if err != nil {
			return nil, fmt.Errorf("report from %s: %w", r.Device, err)
		}
		r.Hosts = append(r.Hosts, model.HostLocation{Host: id, Device: r.Device, Port: hf["port"].GetStringValue()})
	}
	for _, v := range fields["ports"].GetListValue().GetValues() {
		pf := v.GetStructValue().GetFields()
		r.Ports = append(r.Ports, model.PortCounter{
			Port:          pf["port"].GetStringValue(),
			BytesReceived: int64(pf["bytes_received"].GetNumberValue()),
		})
	}
	return r, nil
}
