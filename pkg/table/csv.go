package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// ReadCSV parses a table from CSV data.
// The first record is the header naming the columns. Fields equal to
// MissingToken become missing cells; numeric and boolean fields are typed.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv input has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	t, err := New(header...)
	if err != nil {
		return nil, fmt.Errorf("invalid csv header: %w", err)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		cells := make([]interface{}, len(record))
		for i, field := range record {
			cells[i] = ParseCell(field)
		}
		if err := t.AppendRow(cells...); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// ReadCSVFile parses a table from a CSV file.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer func() { _ = f.Close() }()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// WriteCSV serializes the table as CSV with a header row.
// Missing cells render as MissingToken.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Columns()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for row := 0; row < t.NumRows(); row++ {
		record := make([]string, len(t.cols))
		for i, col := range t.cols {
			record[i] = CellString(col.Cells[row])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile serializes the table to a CSV file.
// The file is replaced atomically using a temp file + rename.
func (t *Table) WriteCSVFile(path string) error {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return err
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write csv file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		// Clean up temp file on failure
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to save csv file: %w", err)
	}

	return nil
}
