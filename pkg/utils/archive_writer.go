/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: archive_writer.go
Description: Utility for archiving assembled report records. Each record is written as
indented JSON under a per-fuzz-target subdirectory with a timestamped filename, so
successive periodic reports for the same target sort chronologically.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kleascm/fuzz-report/pkg/report"
)

// archiveTimeFormat is filesystem safe and sorts lexically
const archiveTimeFormat = "2006-01-02_15-04-05"

// WriteReportArchive writes record to <dir>/<fuzzTarget>/<timestamp>_<fuzzTarget>_report.json
func WriteReportArchive(dir, fuzzTarget string, record report.Record) (string, error) {
	return writeReportArchive(dir, fuzzTarget, record, time.Now())
}

func writeReportArchive(dir, fuzzTarget string, record report.Record, now time.Time) (string, error) {
	if fuzzTarget == "" || fuzzTarget != filepath.Base(fuzzTarget) {
		return "", fmt.Errorf("invalid fuzz target name %q", fuzzTarget)
	}

	// Ensure archive directory and subdirectory exist
	targetDir := filepath.Join(dir, fuzzTarget)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	// Generate filename: 2024-06-11_01-30-00_parser_report.json
	filename := fmt.Sprintf("%s_%s_report.json", now.Format(archiveTimeFormat), fuzzTarget)
	filePath := filepath.Join(targetDir, filename)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write archive file: %w", err)
	}

	return filePath, nil
}
