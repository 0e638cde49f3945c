package main

import (
	"Go2NetSentry/internal/api"
	"Go2NetSentry/internal/config"
	_ "Go2NetSentry/internal/controller/capture"   // Registers capture controller
	_ "Go2NetSentry/internal/controller/feed"      // Registers feed controller
	_ "Go2NetSentry/internal/controller/inventory" // Registers inventory controller
	"Go2NetSentry/internal/engine/manager"
	"Go2NetSentry/internal/factory"
	"Go2NetSentry/internal/query"
	_ "Go2NetSentry/internal/writer" // Registers console, gob and clickhouse writers
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	log.Println("Starting ns-engine...")

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Build engine, controller and writers
	engine, err := manager.NewEngine(cfg)
	if err != nil {
		log.Fatalf("Failed to create detection engine: %v", err)
	}
	ctrl, err := factory.NewController(cfg)
	if err != nil {
		log.Fatalf("Failed to create controller: %v", err)
	}
	writers := factory.NewWriters(cfg)

	hs := api.NewHealthServer()
	mgr, err := manager.NewManager(cfg, engine, ctrl, writers, hs)
	if err != nil {
		log.Fatalf("Failed to create manager: %v", err)
	}

	// 3. Query surfaces
	var querier query.Querier
	for _, def := range cfg.Writers {
		if def.Enabled && def.Type == "clickhouse" {
			querier, err = query.NewClickHouseQuerier(def.ClickHouse)
			if err != nil {
				log.Printf("Warning: ban history unavailable: %v", err)
				querier = nil
			}
			break
		}
	}

	var httpServer *http.Server
	if cfg.API.HttpListenAddr != "" {
		httpServer = &http.Server{
			Addr:    cfg.API.HttpListenAddr,
			Handler: api.NewHandler(engine, querier).Router(),
		}
		go func() {
			log.Printf("HTTP API server starting on %s", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Could not listen on %s: %v", httpServer.Addr, err)
			}
		}()
	}

	grpcServer := api.NewGRPCServer(hs)
	if cfg.API.GrpcListenAddr != "" {
		if _, err := api.ServeGRPC(grpcServer, cfg.API.GrpcListenAddr); err != nil {
			log.Fatalf("Failed to listen on %s: %v", cfg.API.GrpcListenAddr, err)
		}
	}

	// 4. Start ticking
	mgr.Start()

	// 5. Wait for a shutdown signal for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutdown signal received, stopping manager...")
	mgr.Stop()

	grpcServer.GracefulStop()
	if httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("ERROR: HTTP server forced to shutdown: %v", err)
		}
	}
	if c, ok := ctrl.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("ERROR: failed to close controller: %v", err)
		}
	}
	for _, w := range writers {
		if c, ok := w.(io.Closer); ok {
			c.Close()
		}
	}
	log.Println("Shutdown complete.")
}
