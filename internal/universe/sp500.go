package universe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const sp500URL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// SP500 scrapes the current S&P 500 constituents from Wikipedia.
type SP500 struct {
	URL    string
	Client *http.Client
}

// NewSP500 creates an S&P 500 source.
func NewSP500() *SP500 {
	return &SP500{
		URL:    sp500URL,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SP500) Name() string { return "sp500" }

func (s *SP500) Tickers(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch constituents: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch constituents: status %d", resp.StatusCode)
	}
	return ParseConstituents(resp.Body)
}

// ParseConstituents extracts the symbol column of the constituents table.
// Class-share dots are rewritten to dashes (BRK.B -> BRK-B) to match quote providers.
func ParseConstituents(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse constituents: %w", err)
	}

	table := doc.Find("table#constituents").First()
	if table.Length() == 0 {
		table = doc.Find("table.wikitable").First()
	}

	var symbols []string
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cell := row.Find("td").First()
		if cell.Length() == 0 {
			return // header row
		}
		symbol := strings.TrimSpace(cell.Text())
		symbols = append(symbols, strings.ReplaceAll(symbol, ".", "-"))
	})
	if len(symbols) == 0 {
		return nil, fmt.Errorf("parse constituents: no symbols found")
	}
	return normalize(symbols), nil
}
