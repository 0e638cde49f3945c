package model

import (
	"errors"
	"testing"
)

func TestParseHostID(t *testing.T) {
	cases := []struct {
		in   string
		want HostID
	}{
		{"00:00:00:00:00:01", "00:00:00:00:00:01"},
		{"AA-BB-CC-DD-EE-FF", "aa:bb:cc:dd:ee:ff"},
		{"aabb.ccdd.eeff", "aa:bb:cc:dd:ee:ff"},
		{"  of:0001/host-7 ", "of:0001/host-7"},
	}
	for _, c := range cases {
		got, err := ParseHostID(c.in)
		if err != nil {
			t.Fatalf("ParseHostID(%q) failed: %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseHostID(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	if _, err := ParseHostID("   "); !errors.Is(err, ErrInvalidHostID) {
		t.Errorf("Expected ErrInvalidHostID for blank input, got %v", err)
	}
}

func TestReport_HasChanges(t *testing.T) {
	r := &Report{}
	if r.HasChanges() {
		t.Error("Empty report should have no changes")
	}
	r.Unbanned = []HostID{"00:00:00:00:00:01"}
	if !r.HasChanges() {
		t.Error("Report with an unban should have changes")
	}
}
