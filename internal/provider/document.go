package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DocumentProvider fetches the knowledge document from a published URL.
// Published Google Docs serve HTML; self-hosted documents may serve plain
// text. Both collapse to one normalized text blob.
type DocumentProvider struct {
	client *Client
	url    string
}

// NewDocumentProvider creates a provider for the given published document URL.
func NewDocumentProvider(client *Client, url string) *DocumentProvider {
	return &DocumentProvider{client: client, url: url}
}

// FetchDocument retrieves the document and returns its plain text.
func (p *DocumentProvider) FetchDocument(ctx context.Context) (string, error) {
	body, contentType, err := p.client.GetText(ctx, p.url)
	if err != nil {
		return "", fmt.Errorf("fetch document: %w", err)
	}

	if isHTMLContent(contentType) || looksLikeHTML(body) {
		text, err := extractDocumentText(body)
		if err != nil {
			return "", fmt.Errorf("parse document html: %w", err)
		}
		return text, nil
	}
	return normalizeText(body), nil
}

// extractDocumentText pulls visible text out of a published document page.
// Published Google Docs wrap content in a .doc-content container; anything
// else falls back to the body text.
func extractDocumentText(htmlBody string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Remove()

	root := doc.Find(".doc-content")
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var lines []string
	root.Find("p, h1, h2, h3, h4, li, td").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		return normalizeText(root.Text()), nil
	}
	return strings.Join(lines, "\n"), nil
}

// normalizeText trims each line and collapses runs of blank lines.
func normalizeText(s string) string {
	var lines []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(lines) > 0 {
				lines = append(lines, "")
			}
			blank = true
			continue
		}
		blank = false
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func looksLikeHTML(body string) bool {
	head := strings.ToLower(strings.TrimSpace(body))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}
