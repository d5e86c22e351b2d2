package tools

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"Colabi/internal/models"
)

// youtubeSearch queries the YouTube Data API for videos or channels,
// depending on the kind it was built with.
type youtubeSearch struct {
	service *youtube.Service
	kind    string // "video" or "channel"
}

func newYoutubeSearch(apiKey, kind string) (*youtubeSearch, error) {
	service, err := youtube.NewService(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}
	return &youtubeSearch{service: service, kind: kind}, nil
}

func (y *youtubeSearch) Metadata() models.ToolMetadata {
	if y.kind == "channel" {
		return models.ToolMetadata{
			Name:        "youtube_channel_search",
			Description: "Search YouTube for channels matching a query and return their names and links.",
			InputSchema: querySchema("The channel search query."),
		}
	}
	return models.ToolMetadata{
		Name:        "youtube_video_search",
		Description: "Search YouTube for videos matching a query and return their titles and links.",
		InputSchema: querySchema("The video search query."),
	}
}

func (y *youtubeSearch) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query := stringArg(args, "query")
	if query == "" {
		return "", fmt.Errorf("%s: missing query", y.Metadata().Name)
	}

	call := y.service.Search.List([]string{"snippet"}).
		Q(query).
		Type(y.kind).
		MaxResults(5).
		Context(ctx)
	resp, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("youtube search: %w", err)
	}
	if len(resp.Items) == 0 {
		return "No YouTube results found.", nil
	}

	var out strings.Builder
	for _, item := range resp.Items {
		if item.Snippet == nil || item.Id == nil {
			continue
		}
		switch y.kind {
		case "channel":
			fmt.Fprintf(&out, "Channel: %s\nLink: https://www.youtube.com/channel/%s\nDescription: %s\n\n",
				item.Snippet.ChannelTitle, item.Id.ChannelId, item.Snippet.Description)
		default:
			fmt.Fprintf(&out, "Title: %s\nLink: https://www.youtube.com/watch?v=%s\nDescription: %s\n\n",
				item.Snippet.Title, item.Id.VideoId, item.Snippet.Description)
		}
	}
	return out.String(), nil
}
