package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure returned from LoadConfig.
var ErrInvalid = errors.New("invalid config")

const (
	DefaultBandwidth    = 140
	DefaultNumCycles    = 5
	DefaultBanTime      = "10s"
	DefaultTickInterval = "5s"
)

// DetectorConfig holds the window rule thresholds.
type DetectorConfig struct {
	// Bandwidth is the per-cycle threshold in KB.
	Bandwidth int64 `yaml:"bandwidth"`
	// NumCycles is the window size in ticks.
	NumCycles int `yaml:"num_cycles"`
	// BanTime is the intended ban duration. Bans are only lifted by an explicit unban.
	BanTime      string `yaml:"ban_time"`
	TickInterval string `yaml:"tick_interval"`
}

// InventoryConfig configures the YAML inventory controller.
type InventoryConfig struct {
	Path string `yaml:"path"`
}

// CaptureConfig configures the packet capture controller.
type CaptureConfig struct {
	Interface   string `yaml:"interface"`
	PcapFile    string `yaml:"pcap_file"`
	SnapshotLen int32  `yaml:"snapshot_len"`
	Promiscuous bool   `yaml:"promiscuous"`
	// ArchivePath, when set, receives a pcap copy of every captured frame.
	ArchivePath string `yaml:"archive_path"`
}

// FeedConfig configures the NATS feed controller.
type FeedConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// ControllerConfig selects and configures the source of hosts and port counters.
type ControllerConfig struct {
	Type      string          `yaml:"type"`
	Inventory InventoryConfig `yaml:"inventory"`
	Capture   CaptureConfig   `yaml:"capture"`
	Feed      FeedConfig      `yaml:"feed"`
}

// GobConfig holds settings for the gob report writer.
type GobConfig struct {
	RootPath string `yaml:"root_path"`
}

// ClickHouseConfig holds the connection settings for ClickHouse.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WriterDef defines a single report writer.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	Gob        GobConfig        `yaml:"gob"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// AlerterConfig configures ban notifications.
type AlerterConfig struct {
	Enabled     bool   `yaml:"enabled"`
	MinInterval string `yaml:"min_interval"`
	Burst       int    `yaml:"burst"`
}

// SMTPConfig holds the settings for the email notifier.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// APIConfig holds the listen addresses of the query surfaces.
type APIConfig struct {
	HttpListenAddr string `yaml:"http_listen_addr"`
	GrpcListenAddr string `yaml:"grpc_listen_addr"`
}

// ProbeConfig configures ns-probe, which publishes counters for the feed controller.
type ProbeConfig struct {
	NATSURL         string `yaml:"nats_url"`
	Subject         string `yaml:"subject"`
	Interface       string `yaml:"interface"`
	Device          string `yaml:"device"`
	PublishInterval string `yaml:"publish_interval"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Detector   DetectorConfig   `yaml:"detector"`
	Controller ControllerConfig `yaml:"controller"`
	Writers    []WriterDef      `yaml:"writers"`
	Alerter    AlerterConfig    `yaml:"alerter"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	API        APIConfig        `yaml:"api"`
	Probe      ProbeConfig      `yaml:"probe"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals YAML, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Detector.Bandwidth == 0 {
		c.Detector.Bandwidth = DefaultBandwidth
	}
	if c.Detector.NumCycles == 0 {
		c.Detector.NumCycles = DefaultNumCycles
	}
	if c.Detector.BanTime == "" {
		c.Detector.BanTime = DefaultBanTime
	}
	if c.Detector.TickInterval == "" {
		c.Detector.TickInterval = DefaultTickInterval
	}
	if c.Controller.Type == "" {
		c.Controller.Type = "inventory"
	}
	if c.Controller.Capture.SnapshotLen == 0 {
		c.Controller.Capture.SnapshotLen = 1600
	}
	if c.Alerter.MinInterval == "" {
		c.Alerter.MinInterval = "1m"
	}
	if c.Alerter.Burst == 0 {
		c.Alerter.Burst = 1
	}
	if c.Probe.PublishInterval == "" {
		c.Probe.PublishInterval = "1s"
	}
}

// Validate checks thresholds and durations.
func (c *Config) Validate() error {
	if c.Detector.Bandwidth < 0 {
		return fmt.Errorf("%w: detector.bandwidth must be positive, got %d", ErrInvalid, c.Detector.Bandwidth)
	}
	if c.Detector.NumCycles < 0 {
		return fmt.Errorf("%w: detector.num_cycles must be positive, got %d", ErrInvalid, c.Detector.NumCycles)
	}
	if _, err := c.BanTime(); err != nil {
		return err
	}
	if _, err := c.TickInterval(); err != nil {
		return err
	}
	if _, err := parsePositive("alerter.min_interval", c.Alerter.MinInterval); err != nil {
		return err
	}
	if _, err := c.PublishInterval(); err != nil {
		return err
	}
	return nil
}

// BanTime returns the parsed detector.ban_time.
func (c *Config) BanTime() (time.Duration, error) {
	return parsePositive("detector.ban_time", c.Detector.BanTime)
}

// TickInterval returns the parsed detector.tick_interval.
func (c *Config) TickInterval() (time.Duration, error) {
	return parsePositive("detector.tick_interval", c.Detector.TickInterval)
}

// AlertInterval returns the parsed alerter.min_interval.
func (c *Config) AlertInterval() (time.Duration, error) {
	return parsePositive("alerter.min_interval", c.Alerter.MinInterval)
}

// PublishInterval returns the parsed probe.publish_interval.
func (c *Config) PublishInterval() (time.Duration, error) {
	return parsePositive("probe.publish_interval", c.Probe.PublishInterval)
}

func parsePositive(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalid, field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive duration", ErrInvalid, field)
	}
	return d, nil
}
