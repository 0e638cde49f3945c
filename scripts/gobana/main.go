package main

import (
	"Go2NetSentry/internal/writer"
	"fmt"
	"log"
	"os"
)

// gobana prints a tick report written by the gob writer.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts/gobana/main.go <tick_N.gob>")
		os.Exit(1)
	}

	report, err := writer.ReadReport(os.Args[1])
	if err != nil {
		log.Fatalf("Failed to decode gob data: %v", err)
	}

	console := writer.NewConsoleWriter(log.New(os.Stdout, "", 0))
	if err := console.Write(report); err != nil {
		log.Fatalf("Failed to print report: %v", err)
	}
	if report.HasChanges() {
		fmt.Printf("Newly banned: %v\nUnbanned: %v\n", report.NewlyBanned, report.Unbanned)
	}
}
