package inventory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testInventory = `
devices:
  - id: of:0000000000000001
    ports:
      - port: "1"
        bytes_received: 102400
      - port: "2"
        bytes_received: 2048
hosts:
  - mac: 00-00-00-00-00-01
    device: of:0000000000000001
    port: "1"
  - mac: 00:00:00:00:00:02
    device: of:0000000000000001
    port: "2"
`

func writeInventory(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventory.yaml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatalf("Failed to write inventory: %v", err)
	}
	return path
}

func TestController(t *testing.T) {
	ctx := context.Background()
	c := New(writeInventory(t, testInventory))

	hosts, err := c.ListActiveHosts(ctx)
	if err != nil {
		t.Fatalf("ListActiveHosts failed: %v", err)
	}
	if len(hosts) != 2 {
		t.Fatalf("Expected 2 hosts, got %d", len(hosts))
	}
	if hosts[0].Host != "00:00:00:00:00:01" || hosts[0].Port != "1" {
		t.Errorf("Unexpected first host: %+v", hosts[0])
	}

	counters, err := c.PortByteCounters(ctx, "of:0000000000000001")
	if err != nil {
		t.Fatalf("PortByteCounters failed: %v", err)
	}
	if len(counters) != 2 || counters[0].BytesReceived != 102400 {
		t.Errorf("Unexpected counters: %+v", counters)
	}

	counters, err = c.PortByteCounters(ctx, "of:unknown")
	if err != nil || len(counters) != 0 {
		t.Errorf("Unknown device should yield no counters, got %v (err %v)", counters, err)
	}
}

func TestController_Errors(t *testing.T) {
	ctx := context.Background()

	missing := New(filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := missing.ListActiveHosts(ctx); err == nil {
		t.Error("Expected error for a missing inventory file")
	}

	blank := New(writeInventory(t, "hosts:\n  - mac: \"\"\n    device: d\n    port: \"1\"\n"))
	if _, err := blank.ListActiveHosts(ctx); err == nil {
		t.Error("Expected error for a blank host id")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := New(writeInventory(t, testInventory)).PortByteCounters(cancelled, "x"); err == nil {
		t.Error("Expected error for a cancelled context")
	}
}

func TestController_SnapshotIsOneRead(t *testing.T) {
	ctx := context.Background()
	path := writeInventory(t, testInventory)
	c := New(path)

	snap, err := c.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	hosts, err := snap.ListActiveHosts(ctx)
	if err != nil || len(hosts) != 2 {
		t.Fatalf("Expected 2 hosts from snapshot, got %v (err %v)", hosts, err)
	}

	// The exporter rewrites the file mid-tick.
	rewritten := strings.Replace(testInventory, "bytes_received: 102400", "bytes_received: 204800", 1)
	if err := os.WriteFile(path, []byte(rewritten), 0644); err != nil {
		t.Fatalf("Failed to rewrite inventory: %v", err)
	}

	counters, err := snap.PortByteCounters(ctx, "of:0000000000000001")
	if err != nil || len(counters) != 2 || counters[0].BytesReceived != 102400 {
		t.Errorf("Snapshot should keep the first read, got %+v (err %v)", counters, err)
	}
	counters, err = c.PortByteCounters(ctx, "of:0000000000000001")
	if err != nil || len(counters) != 2 || counters[0].BytesReceived != 204800 {
		t.Errorf("Controller should see the rewritten file, got %+v (err %v)", counters, err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("Failed to remove inventory: %v", err)
	}
	if _, err := c.Snapshot(ctx); err == nil {
		t.Error("Expected error snapshotting a missing inventory file")
	}
}
