package main

import (
	"Go2NetSentry/internal/config"
	"Go2NetSentry/internal/engine/manager"
	"Go2NetSentry/internal/engine/replay"
	"Go2NetSentry/internal/factory"
	"Go2NetSentry/internal/model"
	_ "Go2NetSentry/internal/writer" // Registers console, gob and clickhouse writers
	"Go2NetSentry/pkg/pcap"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: pcap-analyzer [-config path] <path_to_pcap_file>")
		flag.PrintDefaults()
	}
	flag.Parse()

	// 1. Get pcap file path from command-line arguments
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	pcapFilePath := flag.Arg(0)

	// 2. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	interval, err := cfg.TickInterval()
	if err != nil {
		log.Fatalf("Invalid tick interval: %v", err)
	}
	detectorCfg, err := manager.DetectorConfig(cfg)
	if err != nil {
		log.Fatalf("Invalid detector config: %v", err)
	}

	// 3. Initialize modules
	writers := factory.NewWriters(cfg)
	bans := 0
	replayer, err := replay.New(detectorCfg, filepath.Base(pcapFilePath), interval, func(report *model.Report) {
		bans += len(report.NewlyBanned)
		for _, w := range writers {
			if err := w.Write(report); err != nil {
				log.Printf("Error writing report of tick %d to %s: %v", report.Tick, w.Name(), err)
			}
		}
	})
	if err != nil {
		log.Fatalf("Failed to create replayer: %v", err)
	}

	pcapReader, err := pcap.NewReader(pcapFilePath)
	if err != nil {
		log.Fatalf("Failed to open pcap file: %v", err)
	}
	defer pcapReader.Close()
	log.Printf("Replaying '%s' with a tick every %s of capture time...", pcapFilePath, interval)

	// 4. Replay
	count, err := pcapReader.ReadPackets(context.Background(), replayer.Observe)
	if err != nil {
		log.Fatalf("Error reading pcap: %v", err)
	}
	if err := replayer.Finish(); err != nil {
		log.Fatalf("Error closing final tick: %v", err)
	}

	log.Printf("Replay finished: %d frames, %d ticks, %d host(s) banned.", count, replayer.Engine().Ticks(), bans)
	for _, b := range replayer.Engine().Banned() {
		log.Printf("Warning: %s banned at tick %d (%s)", b.Host, b.Tick, b.BannedAt.Format("2006-01-02 15:04:05"))
	}
}
