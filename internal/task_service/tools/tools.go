package tools

import (
	"Colabi/internal/config"
	"Colabi/internal/llm"
	"Colabi/internal/models"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Tool is one bounded external capability an agent may invoke during a run.
type Tool interface {
	// Metadata returns the stable name/description/schema declared to the model.
	Metadata() models.ToolMetadata
	// Invoke executes the capability with the model-provided arguments.
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Kind enumerates the known tool kinds. The numeric values double as the
// persisted tool ids referenced from Task.agent_tool.
type Kind uint

const (
	KindSerperSearch Kind = iota + 1
	KindScrapeWebsite
	KindYoutubeVideoSearch
	KindYoutubeChannelSearch
	KindImageGeneration
	KindGoogleTrends
	KindOpenWeatherMap
	KindWikipedia
	KindRedditSearch
	KindZapierNLA
)

// ErrUnknownTool is returned when a task references a tool id that is not in
// the registry enumeration.
var ErrUnknownTool = fmt.Errorf("unknown tool")

// httpClient is shared by all HTTP-backed tools.
var httpClient = &http.Client{Timeout: 30 * time.Second}

// Registry holds the fixed enumeration of tool kinds. Instances are built
// lazily on first resolution and cached per process, so tool constructors
// that reach out to external providers run at most once.
type Registry struct {
	cfg      config.ToolsConfig
	resolver llm.LLM // nested model used by the Zapier action-id resolution

	mu    sync.Mutex
	cache map[Kind]Tool
}

// NewRegistry creates a tool registry bound to the given credentials. The
// resolver client is only exercised by the Zapier NLA tool.
func NewRegistry(cfg config.ToolsConfig, resolver llm.LLM) *Registry {
	return &Registry{
		cfg:      cfg,
		resolver: resolver,
		cache:    make(map[Kind]Tool),
	}
}

// Resolve maps a task's persisted tool ids to live tool instances.
func (r *Registry) Resolve(ids []uint) ([]Tool, error) {
	resolved := make([]Tool, 0, len(ids))
	for _, id := range ids {
		tool, err := r.get(Kind(id))
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, tool)
	}
	return resolved, nil
}

// Declarations returns the metadata of the given tools, in order.
func Declarations(list []Tool) []models.ToolMetadata {
	decls := make([]models.ToolMetadata, 0, len(list))
	for _, t := range list {
		decls = append(decls, t.Metadata())
	}
	return decls
}

// Find returns the tool with the given declared name, or nil.
func Find(list []Tool, name string) Tool {
	for _, t := range list {
		if t.Metadata().Name == name {
			return t
		}
	}
	return nil
}

func (r *Registry) get(kind Kind) (Tool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tool, ok := r.cache[kind]; ok {
		return tool, nil
	}

	tool, err := r.build(kind)
	if err != nil {
		return nil, err
	}
	r.cache[kind] = tool
	return tool, nil
}

func (r *Registry) build(kind Kind) (Tool, error) {
	switch kind {
	case KindSerperSearch:
		return newSerperSearch(r.cfg.SerperAPIKey), nil
	case KindScrapeWebsite:
		return newScrapeWebsite(), nil
	case KindYoutubeVideoSearch:
		return newYoutubeSearch(r.cfg.YoutubeAPIKey, "video")
	case KindYoutubeChannelSearch:
		return newYoutubeSearch(r.cfg.YoutubeAPIKey, "channel")
	case KindImageGeneration:
		return newImageGeneration(r.cfg.DalleAPIKey), nil
	case KindGoogleTrends:
		return newGoogleTrends(r.cfg.SerpAPIKey), nil
	case KindOpenWeatherMap:
		return newOpenWeatherMap(r.cfg.OpenWeatherMapAPIKey), nil
	case KindWikipedia:
		return newWikipedia(), nil
	case KindRedditSearch:
		return newRedditSearch(r.cfg.RedditClientID, r.cfg.RedditClientSecret), nil
	case KindZapierNLA:
		return newZapierNLA(r.cfg, r.resolver), nil
	default:
		return nil, fmt.Errorf("%w: id %d", ErrUnknownTool, kind)
	}
}

// stringArg pulls a string argument out of the model-provided args.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// querySchema is the single-"query" input schema shared by most search tools.
func querySchema(description string) *models.Schema {
	return &models.Schema{
		Type: "object",
		Properties: map[string]*models.Schema{
			"query": {Type: "string", Description: description},
		},
		Required: []string{"query"},
	}
}
