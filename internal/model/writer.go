package model

// Writer defines a generic interface for publishing tick reports.
type Writer interface {
	// Write persists or renders a report. Reports arrive in tick order.
	Write(report *Report) error

	// Name identifies the writer in logs and metrics.
	Name() string
}
