package universe

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Source supplies the ordered list of tickers to screen.
type Source interface {
	Tickers(ctx context.Context) ([]string, error)
	Name() string
}

// Static is a fixed ticker list.
type Static []string

func (s Static) Name() string { return "static" }

func (s Static) Tickers(_ context.Context) ([]string, error) {
	return normalize(s), nil
}

// CSVFile reads tickers from the first column of a CSV file with a header row.
type CSVFile struct {
	Path string
}

func (c *CSVFile) Name() string { return "csv" }

func (c *CSVFile) Tickers(_ context.Context) ([]string, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open universe file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV returns the first column of every row after the header.
func ReadCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read universe csv: %w", err)
	}
	var symbols []string
	for i, record := range records {
		if i == 0 || len(record) == 0 {
			continue
		}
		symbols = append(symbols, record[0])
	}
	return normalize(symbols), nil
}

// normalize upper-cases, trims, drops blanks and duplicates, and keeps order.
func normalize(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
