package writer

import (
	"Go2NetSentry/internal/config"
	"Go2NetSentry/internal/factory"
	"Go2NetSentry/internal/model"
	"log"
)

func init() {
	factory.RegisterWriter("console", func(def config.WriterDef) (model.Writer, error) {
		return NewConsoleWriter(log.Default()), nil
	})
}

// ConsoleWriter renders each report as a host rate table followed by the
// banned hosts.
type ConsoleWriter struct {
	logger *log.Logger
}

// NewConsoleWriter creates a console writer logging to logger.
func NewConsoleWriter(logger *log.Logger) model.Writer {
	return &ConsoleWriter{logger: logger}
}

func (w *ConsoleWriter) Name() string {
	return "console"
}

func (w *ConsoleWriter) Write(report *model.Report) error {
	w.logger.Printf("--- tick %d ---", report.Tick)
	w.logger.Printf("%-18s || Rate", "Host")
	for _, h := range report.Hosts {
		if h.Present {
			w.logger.Printf("%-18s || %d KB", h.Host, h.RateKB)
		} else {
			w.logger.Printf("%-18s || -", h.Host)
		}
	}

	if len(report.Banned) == 0 {
		return nil
	}
	w.logger.Println("Warning: ---Currently Banned Hosts---")
	for _, b := range report.Banned {
		w.logger.Printf("Warning: %s (since tick %d)", b.Host, b.Tick)
	}
	return nil
}
