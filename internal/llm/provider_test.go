package llm

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "testing"

    openai "github.com/sashabaranov/go-openai"
)

func newStub(t *testing.T) *httptest.Server {
    t.Helper()
    srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.Header().Set("Content-Type", "application/json")
        switch r.URL.Path {
        case "/v1/models":
            _ = json.NewEncoder(w).Encode(map[string]any{
                "object": "list",
                "data":   []map[string]any{{"id": "m1", "object": "model"}, {"id": "m2", "object": "model"}},
            })
        case "/v1/chat/completions":
            _ = json.NewEncoder(w).Encode(map[string]any{
                "id":      "stub",
                "object":  "chat.completion",
                "choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": "ok"}}},
            })
        default:
            http.NotFound(w, r)
        }
    }))
    t.Cleanup(srv.Close)
    return srv
}

func TestOpenAIProvider_ChatAndModels(t *testing.T) {
    srv := newStub(t)
    p := NewOpenAIProvider(srv.URL+"/v1", "test", srv.Client())

    resp, err := p.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
        Model:    "m1",
        Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}},
    })
    if err != nil {
        t.Fatalf("chat: %v", err)
    }
    if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "ok" {
        t.Fatalf("unexpected reply: %+v", resp)
    }
    if n := Preflight(context.Background(), p); n != 2 {
        t.Fatalf("expected 2 models, got %d", n)
    }
}

type chatOnly struct{}

func (chatOnly) CreateChatCompletion(context.Context, openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
    return openai.ChatCompletionResponse{}, nil
}

func TestPreflight_SkipsClientsWithoutModelList(t *testing.T) {
    if n := Preflight(context.Background(), chatOnly{}); n != -1 {
        t.Fatalf("expected -1, got %d", n)
    }
}

func TestPreflight_UnreachableIsNotFatal(t *testing.T) {
    srv := httptest.NewServer(http.NotFoundHandler())
    p := NewOpenAIProvider(srv.URL+"/v1", "test", srv.Client())
    srv.Close()
    if n := Preflight(context.Background(), p); n != -1 {
        t.Fatalf("expected -1 for unreachable endpoint, got %d", n)
    }
}
