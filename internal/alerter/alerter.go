package alerter

import (
	"Go2NetSentry/internal/metrics"
	"Go2NetSentry/internal/model"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gomarkdown/markdown"
	"golang.org/x/time/rate"
)

const (
	queueSize     = 64
	retryInterval = 5 * time.Second
)

type change struct {
	host   model.HostID
	tick   uint64
	at     time.Time
	rateKB *int64
	banned bool
}

// Alerter turns blacklist changes into consolidated notifications. Sends are
// throttled; changes that arrive while throttled are carried into the next
// permitted message.
type Alerter struct {
	notifier model.Notifier
	limiter  *rate.Limiter
	banTime  time.Duration

	reports  chan *model.Report
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Owned by the run loop.
	pending []change
}

// NewAlerter creates a new Alerter that sends at most burst messages per
// interval. banTime is only quoted in messages; bans do not expire.
func NewAlerter(interval time.Duration, burst int, notifier model.Notifier, banTime time.Duration) (*Alerter, error) {
	if notifier == nil {
		return nil, fmt.Errorf("alerter needs a notifier")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("alerter interval must be positive, got %v", interval)
	}
	if burst <= 0 {
		burst = 1
	}

	return &Alerter{
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Every(interval), burst),
		banTime:  banTime,
		reports:  make(chan *model.Report, queueSize),
		stopChan: make(chan struct{}),
	}, nil
}

// Start launches the notification loop.
func (a *Alerter) Start() {
	log.Println("Alerter started")
	a.wg.Add(1)
	go a.run()
}

// Stop drains queued reports, sends whatever is pending regardless of the
// throttle and stops the loop.
func (a *Alerter) Stop() {
	log.Println("Stopping Alerter...")
	close(a.stopChan)
	a.wg.Wait()
}

// Notify queues a report without blocking the caller. Reports without
// blacklist changes are ignored.
func (a *Alerter) Notify(report *model.Report) {
	if !report.HasChanges() {
		return
	}
	select {
	case a.reports <- report:
	default:
		log.Printf("Warning: alerter queue full, dropping blacklist changes of tick %d", report.Tick)
	}
}

func (a *Alerter) run() {
	defer a.wg.Done()
	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		select {
		case r := <-a.reports:
			a.collect(r)
			a.flush(false)
		case <-ticker.C:
			a.flush(false)
		case <-a.stopChan:
			a.drain()
			a.flush(true)
			return
		}
	}
}

func (a *Alerter) drain() {
	for {
		select {
		case r := <-a.reports:
			a.collect(r)
		default:
			return
		}
	}
}

func (a *Alerter) collect(r *model.Report) {
	rates := make(map[model.HostID]*int64, len(r.Hosts))
	for _, h := range r.Hosts {
		if h.Present {
			v := h.RateKB
			rates[h.Host] = &v
		}
	}
	for _, h := range r.Unbanned {
		a.pending = append(a.pending, change{host: h, tick: r.Tick, at: r.Timestamp})
	}
	for _, h := range r.NewlyBanned {
		a.pending = append(a.pending, change{host: h, tick: r.Tick, at: r.Timestamp, rateKB: rates[h], banned: true})
	}
}

func (a *Alerter) flush(force bool) {
	if len(a.pending) == 0 {
		return
	}
	if !force && !a.limiter.Allow() {
		return
	}

	bans := 0
	for _, c := range a.pending {
		if c.banned {
			bans++
		}
	}
	subject := fmt.Sprintf("Go2NetSentry Blacklist Update (%d banned, %d unbanned)", bans, len(a.pending)-bans)
	body := string(markdown.ToHTML([]byte(a.render()), nil, nil))

	if err := a.notifier.Send(subject, body); err != nil {
		log.Printf("ERROR: Failed to send blacklist notification: %v", err)
		if force {
			a.pending = nil
		}
		return
	}
	log.Printf("INFO: Blacklist notification sent for %d change(s).", len(a.pending))
	metrics.AlertsSent.Inc()
	a.pending = nil
}

// render builds the markdown summary of pending changes.
func (a *Alerter) render() string {
	var b strings.Builder
	b.WriteString("# Go2NetSentry Blacklist Update\n\n")
	b.WriteString("| Host | Action | Tick | Time | Rate (KB) |\n")
	b.WriteString("|------|--------|------|------|-----------|\n")
	for _, c := range a.pending {
		action := "unbanned"
		if c.banned {
			action = "banned"
		}
		rateKB := "-"
		if c.rateKB != nil {
			rateKB = fmt.Sprintf("%d", *c.rateKB)
		}
		fmt.Fprintf(&b, "| `%s` | %s | %d | %s | %s |\n", c.host, action, c.tick, c.at.UTC().Format(time.RFC3339), rateKB)
	}
	fmt.Fprintf(&b, "\nBans stay in place until an operator unbans the host (nominal ban time %s).\n", a.banTime)
	return b.String()
}
