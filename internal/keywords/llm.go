package keywords

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/reportindex/internal/llm"
	"github.com/hyperifyio/reportindex/internal/report"
)

// LLMTagger asks a chat model for keywords and enforces a JSON-only reply.
// On any failure it answers with Fallback instead.
type LLMTagger struct {
	Client   llm.Client
	Model    string
	Fallback Tagger
}

const systemMessage = "You tag Chinese securities research report titles. Respond with strict JSON only, no narration. " +
	"The JSON schema is {\"stocks\": string[], \"industries\": string[], \"strategies\": string[], \"macro\": string[]}. " +
	"stocks holds six-digit stock codes and company names, industries holds sector names, strategies holds investment strategy terms, macro holds macroeconomic indicators or themes. " +
	"Only use words that appear in the title. Use empty arrays when nothing applies."

func (t *LLMTagger) Tag(ctx context.Context, title string) (report.Keywords, error) {
	kw, err := t.ask(ctx, title)
	if err == nil {
		return kw, nil
	}
	if t.Fallback == nil {
		return report.Keywords{}, err
	}
	log.Warn().Err(err).Str("model", t.Model).Msg("llm tagging failed; using rules")
	return t.Fallback.Tag(ctx, title)
}

func (t *LLMTagger) ask(ctx context.Context, title string) (report.Keywords, error) {
	if t.Client == nil || t.Model == "" {
		return report.Keywords{}, errors.New("llm tagger not configured")
	}
	log.Debug().Str("stage", "keywords").Str("model", t.Model).Int("title_len", len(title)).Msg("llm prompt")
	resp, err := t.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: "Title: " + title},
		},
		Temperature: 0,
		N:           1,
	})
	if err != nil {
		return report.Keywords{}, fmt.Errorf("keywords call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return report.Keywords{}, errors.New("no choices")
	}
	raw := stripCodeFence(strings.TrimSpace(resp.Choices[0].Message.Content))
	var kw report.Keywords
	if err := json.Unmarshal([]byte(raw), &kw); err != nil {
		return report.Keywords{}, fmt.Errorf("parse keywords json: %w", err)
	}
	return sanitize(kw), nil
}

// stripCodeFence removes a surrounding ```json fence some models add.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func sanitize(kw report.Keywords) report.Keywords {
	clean := func(in []string) []string {
		out := []string{}
		for _, s := range in {
			if s = strings.TrimSpace(s); s != "" {
				out = appendUnique(out, s)
			}
		}
		return out
	}
	return report.Keywords{
		Stocks:     clean(kw.Stocks),
		Industries: clean(kw.Industries),
		Strategies: clean(kw.Strategies),
		Macro:      clean(kw.Macro),
	}
}
