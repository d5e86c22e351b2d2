package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"Colabi/internal/models"
)

const serperEndpoint = "https://google.serper.dev/search"

// serperSearch performs a Google web search through the Serper API.
type serperSearch struct {
	apiKey string
}

func newSerperSearch(apiKey string) *serperSearch {
	return &serperSearch{apiKey: apiKey}
}

func (s *serperSearch) Metadata() models.ToolMetadata {
	return models.ToolMetadata{
		Name:        "search_internet",
		Description: "Search the internet for up-to-date information on a given topic and return the most relevant results.",
		InputSchema: querySchema("The search query."),
	}
}

func (s *serperSearch) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "", fmt.Errorf("search_internet: missing query")
	}

	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("serper: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Organic) == 0 {
		return "No results found.", nil
	}

	var buf bytes.Buffer
	for i, item := range result.Organic {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&buf, "Title: %s\nLink: %s\nSnippet: %s\n\n", item.Title, item.Link, item.Snippet)
	}
	return buf.String(), nil
}
