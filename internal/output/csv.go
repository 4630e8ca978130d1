package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"TrendSentinel/internal/model"
)

// Columns is the header of the result table, in order.
var Columns = []string{
	"Date", "Counter", "Ticker", "RS Rating", "Current Close",
	"50 Day MA", "150 Day MA", "200 Day MA", "52 Week Low", "52 Week High",
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Row renders one result in column order.
func Row(r model.ScreeningResult) []string {
	ind := r.Indicators
	return []string{
		r.Date.Format("2006-01-02"),
		strconv.Itoa(r.Counter),
		r.Ticker,
		num(ind.RSRating),
		num(ind.CurrentClose),
		num(ind.SMA50),
		num(ind.SMA150),
		num(ind.SMA200),
		num(ind.Low52w),
		num(ind.High52w),
	}
}

// WriteCSV writes the header and one row per result.
func WriteCSV(w io.Writer, results []model.ScreeningResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes results to path, creating parent directories.
func SaveCSV(path string, results []model.ScreeningResult) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return fmt.Errorf("write output: %w", err)
	}
	return f.Close()
}
