package main

import (
	"Go2NetSentry/internal/config"
	"Go2NetSentry/internal/controller/capture"
	"Go2NetSentry/internal/probe"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
)

const defaultSubject = "sentry.counters"

func main() {
	// --- Command-Line Flag Parsing ---
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	mode := flag.String("mode", "sub", "Operating mode: 'pub' to capture and publish counters, 'sub' to subscribe and print.")
	iface := flag.String("iface", "", "Interface to capture from (overrides probe.interface).")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Probe.NATSURL == "" {
		cfg.Probe.NATSURL = nats.DefaultURL
	}
	if cfg.Probe.Subject == "" {
		cfg.Probe.Subject = defaultSubject
	}
	if *iface != "" {
		cfg.Probe.Interface = *iface
	}

	// --- Mode Dispatch ---
	switch *mode {
	case "pub":
		runProbe(cfg)
	case "sub":
		runSubscriber(cfg.Probe)
	default:
		fmt.Fprintf(os.Stderr, "Invalid mode: %s\n", *mode)
		flag.Usage()
		os.Exit(1)
	}
}

// runProbe tallies bytes per source MAC on an interface and publishes the
// counters every publish interval.
func runProbe(cfg *config.Config) {
	if cfg.Probe.Interface == "" {
		log.Println("Error: an interface is required for probe mode.")
		flag.Usage()
		os.Exit(1)
	}
	interval, err := cfg.PublishInterval()
	if err != nil {
		log.Fatalf("Invalid publish interval: %v", err)
	}
	device := cfg.Probe.Device
	if device == "" {
		device = cfg.Probe.Interface
	}
	log.Printf("Starting ns-probe in PROBE mode on interface %s as device %s", cfg.Probe.Interface, device)

	pub, err := probe.NewPublisher(cfg.Probe)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer pub.Close()

	ctrl, err := capture.Open(config.CaptureConfig{
		Interface:   cfg.Probe.Interface,
		SnapshotLen: cfg.Controller.Capture.SnapshotLen,
		Promiscuous: true,
	})
	if err != nil {
		log.Fatalf("Failed to start capture: %v", err)
	}
	defer ctrl.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	published := 0
	for {
		select {
		case <-ticker.C:
			report, err := buildReport(ctrl, device)
			if err != nil {
				log.Printf("Failed to build counter report: %v", err)
				continue
			}
			if err := pub.Publish(report); err != nil {
				log.Printf("Failed to publish counter report: %v", err)
				continue
			}
			published++
			if published%100 == 0 {
				log.Printf("%d counter reports published...", published)
			}
		case <-sigChan:
			log.Println("Shutdown signal received, cleaning up...")
			return
		}
	}
}

func buildReport(ctrl *capture.Controller, device string) (*probe.CounterReport, error) {
	ctx := context.Background()
	hosts, err := ctrl.ListActiveHosts(ctx)
	if err != nil {
		return nil, err
	}
	ports, err := ctrl.PortByteCounters(ctx, ctrl.Device())
	if err != nil {
		return nil, err
	}
	for i := range hosts {
		hosts[i].Device = device
	}
	return &probe.CounterReport{Device: device, Timestamp: time.Now(), Hosts: hosts, Ports: ports}, nil
}

// runSubscriber prints every counter report received.
func runSubscriber(cfg config.ProbeConfig) {
	log.Println("Starting ns-probe in SUBSCRIBER mode...")

	sub, err := probe.NewSubscriber(cfg.NATSURL, cfg.Subject)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	handler := func(r *probe.CounterReport) {
		log.Printf("Received report from %s at %s: %d hosts, %d ports", r.Device, r.Timestamp.Format(time.RFC3339), len(r.Hosts), len(r.Ports))
		for _, p := range r.Ports {
			log.Printf("  %-18s %d bytes", p.Port, p.BytesReceived)
		}
	}

	if err := sub.Start(handler); err != nil {
		log.Fatalf("Subscriber failed to start: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
}
