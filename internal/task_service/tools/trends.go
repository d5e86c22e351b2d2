package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"Colabi/internal/models"
)

const serpAPIEndpoint = "https://serpapi.com/search.json"

// googleTrends looks up interest-over-time data through SerpApi's
// google_trends engine.
type googleTrends struct {
	apiKey string
}

func newGoogleTrends(apiKey string) *googleTrends {
	return &googleTrends{apiKey: apiKey}
}

func (g *googleTrends) Metadata() models.ToolMetadata {
	return models.ToolMetadata{
		Name:        "google_trends",
		Description: "Look up Google Trends interest-over-time data for a search term.",
		InputSchema: querySchema("The search term to look up trends for."),
	}
}

func (g *googleTrends) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "", fmt.Errorf("google_trends: missing query")
	}

	params := url.Values{}
	params.Set("engine", "google_trends")
	params.Set("q", query)
	params.Set("data_type", "TIMESERIES")
	params.Set("api_key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serpAPIEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("serpapi: unexpected status %d: %s", resp.StatusCode, body)
	}

	var result struct {
		InterestOverTime struct {
			TimelineData []struct {
				Date   string `json:"date"`
				Values []struct {
					Value string `json:"value"`
				} `json:"values"`
			} `json:"timeline_data"`
		} `json:"interest_over_time"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.InterestOverTime.TimelineData) == 0 {
		return "No trend data found.", nil
	}

	out := fmt.Sprintf("Google Trends interest over time for %q:\n", query)
	for _, point := range result.InterestOverTime.TimelineData {
		value := ""
		if len(point.Values) > 0 {
			value = point.Values[0].Value
		}
		out += fmt.Sprintf("%s: %s\n", point.Date, value)
	}
	return out, nil
}
