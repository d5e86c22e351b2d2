package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"Colabi/internal/models"
)

const wikipediaEndpoint = "https://en.wikipedia.org/w/api.php"

// wikipedia searches English Wikipedia and returns extracts of the top pages.
type wikipedia struct{}

func newWikipedia() *wikipedia {
	return &wikipedia{}
}

func (w *wikipedia) Metadata() models.ToolMetadata {
	return models.ToolMetadata{
		Name:        "wikipedia",
		Description: "Search Wikipedia and return summaries of the most relevant articles.",
		InputSchema: querySchema("The topic to look up on Wikipedia."),
	}
}

func (w *wikipedia) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "", fmt.Errorf("wikipedia: missing query")
	}

	titles, err := w.search(ctx, query)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return "No Wikipedia results found.", nil
	}

	out := ""
	for i, title := range titles {
		if i >= 3 {
			break
		}
		extract, err := w.extract(ctx, title)
		if err != nil {
			continue
		}
		out += fmt.Sprintf("Page: %s\nSummary: %s\n\n", title, extract)
	}
	if out == "" {
		return "No Wikipedia results found.", nil
	}
	return out, nil
}

func (w *wikipedia) search(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("format", "json")

	var result struct {
		Query struct {
			Search []struct {
				Title string `json:"title"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := w.get(ctx, params, &result); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(result.Query.Search))
	for _, item := range result.Query.Search {
		titles = append(titles, item.Title)
	}
	return titles, nil
}

func (w *wikipedia) extract(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("titles", title)
	params.Set("format", "json")

	var result struct {
		Query struct {
			Pages map[string]struct {
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := w.get(ctx, params, &result); err != nil {
		return "", err
	}
	for _, page := range result.Query.Pages {
		return page.Extract, nil
	}
	return "", fmt.Errorf("wikipedia: page %q not found", title)
}

func (w *wikipedia) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wikipediaEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wikipedia: unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
