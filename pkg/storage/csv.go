package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// CSVSink writes log records to a delimited file.
//
// In overwrite mode the file is replaced atomically using a temp file +
// rename, so readers never observe a partial log. In append mode records
// are appended in place and the header is written only when the file is
// new or empty.
type CSVSink struct {
	// Path is the destination file
	Path string
	// Append adds records to an existing file instead of replacing it
	Append bool
}

// Target returns the destination path.
func (s *CSVSink) Target() string {
	return s.Path
}

// Write persists the header and rows to the file.
func (s *CSVSink) Write(header []string, rows [][]string) error {
	if s.Path == "" {
		return fmt.Errorf("csv sink path cannot be empty")
	}

	// Create parent directory if it doesn't exist
	if dir := filepath.Dir(s.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create sink directory: %w", err)
		}
	}

	if s.Append {
		return s.appendRecords(header, rows)
	}
	return s.replaceRecords(header, rows)
}

// replaceRecords writes the whole log and swaps it into place atomically.
func (s *CSVSink) replaceRecords(header []string, rows [][]string) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to encode csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to encode csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to encode csv log: %w", err)
	}

	tempPath := s.Path + ".tmp"
	if err := os.WriteFile(tempPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write log file: %w", err)
	}

	if err := os.Rename(tempPath, s.Path); err != nil {
		// Clean up temp file on failure
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to save log file: %w", err)
	}

	return nil
}

// appendRecords adds rows to the end of the file, emitting the header
// first only when the file is new or empty.
func (s *CSVSink) appendRecords(header []string, rows [][]string) error {
	needHeader := true
	if info, err := os.Stat(s.Path); err == nil && info.Size() > 0 {
		needHeader = false
	}

	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file for append: %w", err)
	}
	defer func() { _ = f.Close() }()

	writer := csv.NewWriter(f)
	if needHeader {
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("failed to append csv header: %w", err)
		}
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to append csv record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to append csv log: %w", err)
	}
	return nil
}
