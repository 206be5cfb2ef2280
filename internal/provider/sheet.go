package provider

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"strings"
)

// SheetProvider fetches keyword rows from a spreadsheet's CSV export. The
// configured base URL is the sheet's export endpoint; the page name is
// appended per request.
type SheetProvider struct {
	client  *Client
	baseURL string
}

// NewSheetProvider creates a provider for the given CSV export URL.
func NewSheetProvider(client *Client, baseURL string) *SheetProvider {
	return &SheetProvider{client: client, baseURL: baseURL}
}

// FetchRows downloads one named page and returns its rows. Ragged rows are
// tolerated; completely empty rows are dropped.
func (p *SheetProvider) FetchRows(ctx context.Context, page string) ([][]string, error) {
	body, _, err := p.client.GetText(ctx, p.pageURL(page))
	if err != nil {
		return nil, fmt.Errorf("fetch sheet page %q: %w", page, err)
	}

	reader := csv.NewReader(strings.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse sheet page %q: %w", page, err)
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		if rowEmpty(record) {
			continue
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// pageURL appends the page name to the export URL, preserving any query
// parameters already present.
func (p *SheetProvider) pageURL(page string) string {
	if page == "" {
		return p.baseURL
	}
	sep := "?"
	if strings.Contains(p.baseURL, "?") {
		sep = "&"
	}
	return p.baseURL + sep + "sheet=" + url.QueryEscape(page)
}

func rowEmpty(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
