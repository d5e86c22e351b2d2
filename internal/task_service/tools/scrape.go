package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"Colabi/internal/models"
)

// maxScrapeBytes bounds how much of a page is read before conversion.
const maxScrapeBytes = 2 << 20

// scrapeWebsite fetches a web page and converts its HTML body to Markdown so
// the model receives readable text instead of raw markup.
type scrapeWebsite struct{}

func newScrapeWebsite() *scrapeWebsite {
	return &scrapeWebsite{}
}

func (s *scrapeWebsite) Metadata() models.ToolMetadata {
	return models.ToolMetadata{
		Name:        "scrape_website",
		Description: "Fetch the content of a web page and return it as Markdown text.",
		InputSchema: &models.Schema{
			Type: "object",
			Properties: map[string]*models.Schema{
				"url": {Type: "string", Description: "The full URL of the page to fetch, including the scheme."},
			},
			Required: []string{"url"},
		},
	}
}

func (s *scrapeWebsite) Invoke(ctx context.Context, args map[string]any) (string, error) {
	pageURL := stringArg(args, "url")
	if pageURL == "" {
		return "", fmt.Errorf("scrape_website: missing url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; colabi-task-service/1.0)")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scrape_website: unexpected status %d for %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxScrapeBytes))
	if err != nil {
		return "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		// Non-HTML responses are passed through untouched.
		return string(body), nil
	}

	markdown, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("scrape_website: convert %s: %w", pageURL, err)
	}
	return markdown, nil
}
