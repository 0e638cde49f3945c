package query

import (
	"Go2NetSentry/internal/config"
	"Go2NetSentry/internal/model"
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

const defaultHistoryLimit = 100

// BanEvent is one row of the ban_events table.
type BanEvent struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	Tick      uint64    `json:"tick"`
	Host      string    `json:"host"`
	Action    string    `json:"action"`
}

// Querier defines the interface for querying blacklist history.
type Querier interface {
	BanHistory(ctx context.Context, host model.HostID, limit int) ([]BanEvent, error)
}

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn clickhouse.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (clickhouse.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
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

// BanHistory returns the most recent ban and unban events of host, newest first.
func (q *clickhouseQuerier) BanHistory(ctx context.Context, host model.HostID, limit int) ([]BanEvent, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := q.conn.Query(ctx, `
		SELECT toString(EventID), Timestamp, Tick, Host, Action
		FROM ban_events
		WHERE Host = ?
		ORDER BY Timestamp DESC, Tick DESC
		LIMIT ?`, string(host), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var events []BanEvent
	for rows.Next() {
		var e BanEvent
		if err := rows.Scan(&e.EventID, &e.Timestamp, &e.Tick, &e.Host, &e.Action); err != nil {
			return nil, fmt.Errorf("failed to scan ban event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ban events: %w", err)
	}
	return events, nil
}
