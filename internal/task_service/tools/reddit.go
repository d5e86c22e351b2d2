package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"Colabi/internal/models"
)

const (
	redditTokenEndpoint = "https://www.reddit.com/api/v1/access_token"
	redditAPIBase       = "https://oauth.reddit.com"
	redditUserAgent     = "colabi-task-service/1.0"
)

// redditSearch searches subreddit posts through the Reddit OAuth API using
// application-only (client credentials) authentication. The access token is
// cached until shortly before it expires.
type redditSearch struct {
	clientID     string
	clientSecret string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func newRedditSearch(clientID, clientSecret string) *redditSearch {
	return &redditSearch{clientID: clientID, clientSecret: clientSecret}
}

func (r *redditSearch) Metadata() models.ToolMetadata {
	return models.ToolMetadata{
		Name:        "reddit_search",
		Description: "Search Reddit posts, optionally limited to a subreddit, and return the top matches.",
		InputSchema: &models.Schema{
			Type: "object",
			Properties: map[string]*models.Schema{
				"query":     {Type: "string", Description: "The search query."},
				"subreddit": {Type: "string", Description: "Optional subreddit name to search within, without the r/ prefix."},
				"sort":      {Type: "string", Description: "Sort order for results.", Enum: []string{"relevance", "hot", "top", "new", "comments"}},
				"time_filter": {
					Type: "string", Description: "Time window for results.",
					Enum: []string{"all", "day", "hour", "month", "week", "year"},
				},
			},
			Required: []string{"query"},
		},
	}
}

func (r *redditSearch) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "", fmt.Errorf("reddit_search: missing query")
	}

	token, err := r.accessToken(ctx)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "5")
	if sort := stringArg(args, "sort"); sort != "" {
		params.Set("sort", sort)
	}
	if tf := stringArg(args, "time_filter"); tf != "" {
		params.Set("t", tf)
	}

	endpoint := redditAPIBase + "/search"
	if subreddit := stringArg(args, "subreddit"); subreddit != "" {
		endpoint = fmt.Sprintf("%s/r/%s/search", redditAPIBase, url.PathEscape(subreddit))
		params.Set("restrict_sr", "1")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", redditUserAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reddit: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Children []struct {
				Data struct {
					Title     string `json:"title"`
					Selftext  string `json:"selftext"`
					Subreddit string `json:"subreddit"`
					Permalink string `json:"permalink"`
					Score     int    `json:"score"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Data.Children) == 0 {
		return "No Reddit posts found.", nil
	}

	var out strings.Builder
	for _, child := range result.Data.Children {
		post := child.Data
		body := truncateRunes(post.Selftext, 500)
		fmt.Fprintf(&out, "r/%s (score %d): %s\nhttps://www.reddit.com%s\n%s\n\n",
			post.Subreddit, post.Score, post.Title, post.Permalink, body)
	}
	return out.String(), nil
}

// truncateRunes shortens s to at most limit runes, never splitting a
// multi-byte sequence.
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}

func (r *redditSearch) accessToken(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && time.Now().Before(r.tokenExpiry) {
		return r.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, redditTokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", redditUserAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reddit: token request failed with status %d", resp.StatusCode)
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("reddit: empty access token")
	}

	r.token = token.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)
	return r.token, nil
}
