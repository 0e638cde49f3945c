package writer

import (
	"Go2NetSentry/internal/config"
	"Go2NetSentry/internal/factory"
	"Go2NetSentry/internal/model"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
)

func init() {
	factory.RegisterWriter("clickhouse", func(def config.WriterDef) (model.Writer, error) {
		w, err := NewClickHouseWriter(def.ClickHouse)
		if err == nil {
			log.Printf("ClickHouse writer created for database %s at %s:%d", def.ClickHouse.Database, def.ClickHouse.Host, def.ClickHouse.Port)
		}
		return w, err
	})
}

const createHostRatesStatement = `
CREATE TABLE IF NOT EXISTS host_rates (
    Timestamp DateTime,
    Tick      UInt64,
    Host      String,
    RateKB    Nullable(Int64)
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Host, Timestamp);
`

const createBanEventsStatement = `
CREATE TABLE IF NOT EXISTS ban_events (
    EventID   UUID,
    Timestamp DateTime,
    Tick      UInt64,
    Host      String,
    Action    LowCardinality(String)
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Host, Timestamp);
`

const (
	ActionBan   = "ban"
	ActionUnban = "unban"
)

// ClickHouseWriter stores per-tick host rates and blacklist changes.
type ClickHouseWriter struct {
	conn    driver.Conn
	timeout time.Duration
}

// NewClickHouseWriter connects and ensures both tables exist.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (model.Writer, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	for _, stmt := range []string{createHostRatesStatement, createBanEventsStatement} {
		if err := conn.Exec(context.Background(), stmt); err != nil {
			return nil, fmt.Errorf("failed to create table: %w", err)
		}
	}
	log.Println("Successfully connected to ClickHouse and ensured tables exist.")

	return &ClickHouseWriter{conn: conn, timeout: 10 * time.Second}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}
	return conn, nil
}

func (w *ClickHouseWriter) Name() string {
	return "clickhouse"
}

// Close releases the connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}

// Write inserts one host_rates row per known host and one ban_events row per
// blacklist change.
func (w *ClickHouseWriter) Write(report *model.Report) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if len(report.Hosts) > 0 {
		batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO host_rates")
		if err != nil {
			return fmt.Errorf("failed to prepare host_rates batch: %w", err)
		}
		for _, h := range report.Hosts {
			var rate *int64
			if h.Present {
				v := h.RateKB
				rate = &v
			}
			if err := batch.Append(report.Timestamp, report.Tick, string(h.Host), rate); err != nil {
				return fmt.Errorf("failed to append host rate to batch: %w", err)
			}
		}
		if err := batch.Send(); err != nil {
			return fmt.Errorf("failed to send host_rates batch: %w", err)
		}
	}

	events := banEvents(report)
	if len(events) == 0 {
		return nil
	}
	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO ban_events")
	if err != nil {
		return fmt.Errorf("failed to prepare ban_events batch: %w", err)
	}
	for _, e := range events {
		if err := batch.Append(e.id, report.Timestamp, report.Tick, string(e.host), e.action); err != nil {
			return fmt.Errorf("failed to append ban event to batch: %w", err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send ban_events batch: %w", err)
	}

	log.Printf("Wrote %d ban events to ClickHouse for tick %d", len(events), report.Tick)
	return nil
}

type banEvent struct {
	id     uuid.UUID
	host   model.HostID
	action string
}

func banEvents(report *model.Report) []banEvent {
	events := make([]banEvent, 0, len(report.NewlyBanned)+len(report.Unbanned))
	for _, h := range report.Unbanned {
		events = append(events, banEvent{id: uuid.New(), host: h, action: ActionUnban})
	}
	for _, h := range report.NewlyBanned {
		events = append(events, banEvent{id: uuid.New(), host: h, action: ActionBan})
	}
	return events
}
