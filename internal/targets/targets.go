// Package targets reads bulk-run target lists from text and CSV files.
package targets

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Target is one URL to process, with optional pass-through metadata taken
// from extra CSV columns.
type Target struct {
	URL      string
	Metadata map[string]string
}

// ReadFile dispatches on the file extension: .csv is parsed as CSV with a
// url column, anything else as one URL per line.
func ReadFile(path string) ([]Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ReadCSV(f)
	}
	return ReadLines(f)
}

// ReadLines reads one URL per line, skipping blank lines and # comments.
func ReadLines(r io.Reader) ([]Target, error) {
	var out []Target
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, Target{URL: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	return out, nil
}

// ReadCSV reads targets from CSV. The header must contain a url column
// (case-insensitive); every other column becomes metadata keyed by its
// header name. Rows with an empty url cell are skipped.
func ReadCSV(r io.Reader) ([]Target, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	urlCol := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), "url") {
			urlCol = i
			break
		}
	}
	if urlCol < 0 {
		return nil, fmt.Errorf("csv header has no url column")
	}

	var out []Target
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		if urlCol >= len(record) {
			continue
		}
		url := strings.TrimSpace(record[urlCol])
		if url == "" {
			continue
		}

		t := Target{URL: url}
		for i, name := range header {
			if i == urlCol || i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			if value == "" {
				continue
			}
			if t.Metadata == nil {
				t.Metadata = make(map[string]string)
			}
			t.Metadata[strings.TrimSpace(name)] = value
		}
		out = append(out, t)
	}
	return out, nil
}

// URLs projects the target list down to its URL column.
func URLs(targets []Target) []string {
	out := make([]string, 0, len(targets))
	for _, t := range targets {
		out = append(out, t.URL)
	}
	return out
}
