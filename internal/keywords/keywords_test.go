package keywords

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/reportindex/internal/llm"
	"github.com/hyperifyio/reportindex/internal/report"
)

func TestFromTitle(t *testing.T) {
	got := FromTitle("贵州茅台股份：白酒龙头估值展望 600519、000858 与 1234567")
	want := report.Keywords{
		Stocks:     []string{"600519", "000858", "贵州茅台股份"},
		Industries: []string{"白酒"},
		Strategies: []string{"估值", "展望"},
		Macro:      []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keywords mismatch (-want +got):\n%s", diff)
	}
}

func TestFromTitle_MacroCaseInsensitive(t *testing.T) {
	got := FromTitle("9月cpi与ppi点评：通胀温和")
	want := []string{"CPI", "PPI", "通胀"}
	if diff := cmp.Diff(want, got.Macro); diff != "" {
		t.Fatalf("macro mismatch (-want +got):\n%s", diff)
	}
}

func TestFromTitle_ColonWithoutCompanyMarker(t *testing.T) {
	got := FromTitle("周报：市场回顾")
	if len(got.Stocks) != 0 {
		t.Fatalf("expected no stock names, got %v", got.Stocks)
	}
}

func TestFromTitle_Empty(t *testing.T) {
	got := FromTitle("")
	if got.Stocks == nil || got.Industries == nil || got.Strategies == nil || got.Macro == nil {
		t.Fatalf("expected empty non-nil lists, got %#v", got)
	}
}

func TestAnnotate_KeepsRecordsOnFailure(t *testing.T) {
	recs := []report.Record{
		{URL: "/pdfs/a.pdf", Info: report.Info{Title: "半导体景气度"}},
		{URL: "/pdfs/b.pdf", Info: report.Info{Title: "boom"}},
	}
	tagger := taggerFunc(func(_ context.Context, title string) (report.Keywords, error) {
		if title == "boom" {
			return report.Keywords{}, errors.New("boom")
		}
		return FromTitle(title), nil
	})
	if err := Annotate(context.Background(), tagger, recs); err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if recs[0].Keywords == nil || recs[0].Keywords.Industries[0] != "半导体" {
		t.Fatalf("first record not tagged: %+v", recs[0].Keywords)
	}
	if recs[1].Keywords != nil {
		t.Fatalf("failed record should stay untagged")
	}
}

type taggerFunc func(ctx context.Context, title string) (report.Keywords, error)

func (f taggerFunc) Tag(ctx context.Context, title string) (report.Keywords, error) {
	return f(ctx, title)
}

type fakeChat struct {
	content string
	err     error
	req     openai.ChatCompletionRequest
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.content}}}}, nil
}

func TestLLMTagger_ParsesFencedJSON(t *testing.T) {
	fc := &fakeChat{content: "```json\n{\"stocks\":[\" 600519 \",\"600519\"],\"industries\":[\"白酒\"],\"strategies\":[],\"macro\":null}\n```"}
	tg := &LLMTagger{Client: fc, Model: "test-model"}
	got, err := tg.Tag(context.Background(), "贵州茅台600519")
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	want := report.Keywords{Stocks: []string{"600519"}, Industries: []string{"白酒"}, Strategies: []string{}, Macro: []string{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("keywords mismatch (-want +got):\n%s", diff)
	}
	if fc.req.Model != "test-model" || len(fc.req.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", fc.req)
	}
}

func TestLLMTagger_FallsBackOnBadReply(t *testing.T) {
	for name, fc := range map[string]*fakeChat{
		"not json":   {content: "sure, here you go"},
		"call error": {err: errors.New("connection refused")},
	} {
		t.Run(name, func(t *testing.T) {
			tg := &LLMTagger{Client: fc, Model: "m", Fallback: RuleTagger{}}
			got, err := tg.Tag(context.Background(), "光伏行业周报")
			if err != nil {
				t.Fatalf("expected fallback, got error %v", err)
			}
			if len(got.Industries) == 0 || got.Industries[0] != "光伏" {
				t.Fatalf("expected rule-based result, got %+v", got)
			}
		})
	}
}

func TestLLMTagger_NoFallbackReturnsError(t *testing.T) {
	tg := &LLMTagger{}
	if _, err := tg.Tag(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for unconfigured tagger")
	}
}

func TestLLMTagger_AgainstOpenAIStub(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "stub",
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": `{"stocks":[],"industries":["医药"],"strategies":[],"macro":[]}`}}},
		})
	}))
	defer srv.Close()

	tg := &LLMTagger{Client: llm.NewOpenAIProvider(srv.URL+"/v1", "test", srv.Client()), Model: "stub"}
	got, err := tg.Tag(context.Background(), "医药行业深度")
	if err != nil {
		t.Fatalf("tag: %v", err)
	}
	if len(got.Industries) != 1 || got.Industries[0] != "医药" {
		t.Fatalf("unexpected keywords: %+v", got)
	}
}
