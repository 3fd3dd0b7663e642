package llm

import (
    "context"
    "net/http"
    "time"

    "github.com/rs/zerolog/log"
    openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface the keyword tagger needs to call a chat
// model. Any OpenAI-compatible backend or a test double satisfies it.
type Client interface {
    CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelLister is an optional capability; callers detect it with a type
// assertion.
type ModelLister interface {
    ListModels(ctx context.Context) (openai.ModelsList, error)
}

// OpenAIProvider adapts *openai.Client to the Client/ModelLister interfaces.
type OpenAIProvider struct {
    Inner *openai.Client
}

// NewOpenAIProvider builds a provider for an OpenAI-compatible endpoint.
// An empty baseURL keeps the library default.
func NewOpenAIProvider(baseURL, apiKey string, httpClient *http.Client) *OpenAIProvider {
    cfg := openai.DefaultConfig(apiKey)
    if baseURL != "" {
        cfg.BaseURL = baseURL
    }
    if httpClient != nil {
        cfg.HTTPClient = httpClient
    }
    return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
    return p.Inner.CreateChatCompletion(ctx, request)
}

func (p *OpenAIProvider) ListModels(ctx context.Context) (openai.ModelsList, error) {
    return p.Inner.ListModels(ctx)
}

// PreflightTimeout bounds the model listing done by Preflight.
const PreflightTimeout = 5 * time.Second

// Preflight lists models when c supports it and logs the outcome. It never
// fails: an unreachable endpoint surfaces later as a tagging fallback.
// It reports how many models were listed, or -1 when c cannot list them
// or the call failed.
func Preflight(ctx context.Context, c Client) int {
    lister, ok := c.(ModelLister)
    if !ok {
        return -1
    }
    ctx, cancel := context.WithTimeout(ctx, PreflightTimeout)
    defer cancel()
    models, err := lister.ListModels(ctx)
    if err != nil {
        log.Warn().Err(err).Msg("LLM model list failed; continuing")
        return -1
    }
    if len(models.Models) > 0 {
        log.Info().Int("count", len(models.Models)).Msg("LLM models available")
    } else {
        log.Warn().Msg("LLM returned zero models")
    }
    return len(models.Models)
}
