package alerter

import (
	"Go2NetSentry/internal/model"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type message struct {
	subject string
	body    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []message
	err  error
}

func (f *fakeNotifier) Send(subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, message{subject, body})
	return nil
}

func (f *fakeNotifier) messages() []message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message(nil), f.sent...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Condition not met before deadline")
}

func banReport(tick uint64, host model.HostID, rate int64) *model.Report {
	return &model.Report{
		Tick:        tick,
		Timestamp:   time.Unix(1700000000, 0),
		Hosts:       []model.HostRate{{Host: host, RateKB: rate, Present: true}},
		NewlyBanned: []model.HostID{host},
	}
}

func TestAlerter_SendsBan(t *testing.T) {
	n := &fakeNotifier{}
	a, err := NewAlerter(time.Millisecond, 1, n, 10*time.Second)
	if err != nil {
		t.Fatalf("NewAlerter failed: %v", err)
	}
	a.Start()

	a.Notify(&model.Report{Tick: 1}) // no changes, ignored
	a.Notify(banReport(6, "00:00:00:00:00:01", 1500))
	waitFor(t, func() bool { return len(n.messages()) == 1 })
	a.Stop()

	msgs := n.messages()
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0].subject, "1 banned, 0 unbanned") {
		t.Errorf("Unexpected subject %q", msgs[0].subject)
	}
	for _, want := range []string{"<table>", "00:00:00:00:00:01", "1500", "banned"} {
		if !strings.Contains(msgs[0].body, want) {
			t.Errorf("Body is missing %q:\n%s", want, msgs[0].body)
		}
	}
}

func TestAlerter_ThrottledChangesFlushOnStop(t *testing.T) {
	n := &fakeNotifier{}
	a, err := NewAlerter(time.Hour, 1, n, 10*time.Second)
	if err != nil {
		t.Fatalf("NewAlerter failed: %v", err)
	}
	a.Start()

	a.Notify(banReport(6, "00:00:00:00:00:01", 1500))
	waitFor(t, func() bool { return len(n.messages()) == 1 })

	a.Notify(banReport(7, "00:00:00:00:00:02", 900))
	a.Notify(&model.Report{Tick: 8, Unbanned: []model.HostID{"00:00:00:00:00:01"}})
	time.Sleep(50 * time.Millisecond)
	if got := len(n.messages()); got != 1 {
		t.Fatalf("Expected throttled changes to be held back, got %d messages", got)
	}

	a.Stop()
	msgs := n.messages()
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages after stop, got %d", len(msgs))
	}
	if !strings.Contains(msgs[1].subject, "1 banned, 1 unbanned") {
		t.Errorf("Unexpected subject %q", msgs[1].subject)
	}
	if !strings.Contains(msgs[1].body, "00:00:00:00:00:02") || !strings.Contains(msgs[1].body, "unbanned") {
		t.Errorf("Consolidated message is missing changes:\n%s", msgs[1].body)
	}
}

func TestAlerter_SendFailureDoesNotBlockStop(t *testing.T) {
	n := &fakeNotifier{err: errors.New("smtp down")}
	a, err := NewAlerter(time.Millisecond, 1, n, time.Second)
	if err != nil {
		t.Fatalf("NewAlerter failed: %v", err)
	}
	a.Start()
	a.Notify(banReport(6, "00:00:00:00:00:01", 1500))
	a.Stop()
	if len(n.messages()) != 0 {
		t.Error("No message should be recorded when sending fails")
	}
}

func TestNewAlerter_Invalid(t *testing.T) {
	if _, err := NewAlerter(0, 1, &fakeNotifier{}, 0); err == nil {
		t.Error("Expected error for a zero interval")
	}
	if _, err := NewAlerter(time.Minute, 1, nil, 0); err == nil {
		t.Error("Expected error for missing notifier")
	}
}
