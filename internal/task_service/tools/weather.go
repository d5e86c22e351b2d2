package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"Colabi/internal/models"
)

const openWeatherMapEndpoint = "https://api.openweathermap.org/data/2.5/weather"

// openWeatherMap fetches the current weather for a location.
type openWeatherMap struct {
	apiKey string
}

func newOpenWeatherMap(apiKey string) *openWeatherMap {
	return &openWeatherMap{apiKey: apiKey}
}

func (o *openWeatherMap) Metadata() models.ToolMetadata {
	return models.ToolMetadata{
		Name:        "get_weather",
		Description: "Get the current weather conditions for a city.",
		InputSchema: &models.Schema{
			Type: "object",
			Properties: map[string]*models.Schema{
				"location": {Type: "string", Description: "The city name, e.g. \"London\" or \"London,GB\"."},
			},
			Required: []string{"location"},
		},
	}
}

func (o *openWeatherMap) Invoke(ctx context.Context, args map[string]any) (string, error) {
	location := stringArg(args, "location")
	if location == "" {
		return "", fmt.Errorf("get_weather: missing location")
	}

	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", o.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openWeatherMapEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openweathermap: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	description := ""
	if len(result.Weather) > 0 {
		description = result.Weather[0].Description
	}
	return fmt.Sprintf(
		"Weather in %s: %s, temperature %.1f°C (feels like %.1f°C), humidity %d%%, wind %.1f m/s.",
		result.Name, description, result.Main.Temp, result.Main.FeelsLike,
		result.Main.Humidity, result.Wind.Speed,
	), nil
}
