package writer

import (
	"Go2NetSentry/internal/config"
	"Go2NetSentry/internal/factory"
	"Go2NetSentry/internal/model"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func init() {
	factory.RegisterWriter("gob", func(def config.WriterDef) (model.Writer, error) {
		if def.Gob.RootPath == "" {
			return nil, fmt.Errorf("gob writer needs a root_path")
		}
		return NewGobWriter(def.Gob.RootPath), nil
	})
}

// SummaryData holds the running totals written next to the gob files.
type SummaryData struct {
	LastTick    uint64 `json:"last_tick"`
	KnownHosts  int    `json:"known_hosts"`
	BannedHosts int    `json:"banned_hosts"`
	TotalBans   int    `json:"total_bans"`
	TotalUnbans int    `json:"total_unbans"`
	Timestamp   string `json:"timestamp"`
}

// GobWriter writes every report to disk in gob format, one file per tick
// grouped by day, and keeps summary.json current.
type GobWriter struct {
	rootPath string
	summary  SummaryData
}

// NewGobWriter creates a new gob writer rooted at rootPath.
func NewGobWriter(rootPath string) model.Writer {
	return &GobWriter{rootPath: rootPath}
}

func (w *GobWriter) Name() string {
	return "gob"
}

// Write encodes report to <root>/<day>/tick_<n>.gob and rewrites summary.json.
func (w *GobWriter) Write(report *model.Report) error {
	// 1. Create the day directory
	dayDir := filepath.Join(w.rootPath, report.Timestamp.UTC().Format("2006-01-02"))
	if err := os.MkdirAll(dayDir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	// 2. Encode the report
	filePath := filepath.Join(dayDir, fmt.Sprintf("tick_%d.gob", report.Tick))
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create report file '%s': %w", filePath, err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(report); err != nil {
		return fmt.Errorf("failed to encode report to gob for file '%s': %w", filePath, err)
	}

	// 3. Update the summary
	w.summary.LastTick = report.Tick
	w.summary.KnownHosts = len(report.Hosts)
	w.summary.BannedHosts = len(report.Banned)
	w.summary.TotalBans += len(report.NewlyBanned)
	w.summary.TotalUnbans += len(report.Unbanned)
	w.summary.Timestamp = time.Now().UTC().Format(time.RFC3339)

	summaryFile, err := os.Create(filepath.Join(w.rootPath, "summary.json"))
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()

	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(w.summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}
	return nil
}

// ReadReport decodes a file written by GobWriter.
func ReadReport(path string) (*model.Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var report model.Report
	if err := gob.NewDecoder(file).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report '%s': %w", path, err)
	}
	return &report, nil
}
