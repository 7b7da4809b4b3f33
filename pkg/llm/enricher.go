// Package llm turns article text into Korean editorial fields with an OpenAI-compatible chat model.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pkgz/lgr"
	"github.com/invopop/jsonschema"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sashabaranov/go-openai"

	"github.com/stageside/stageside/pkg/config"
	"github.com/stageside/stageside/pkg/domain"
	"github.com/stageside/stageside/pkg/retry"
)

// summary markers of synthetic structures, the archive never admits records carrying them
const (
	MarkerUnavailable = "summary unavailable"
	MarkerFailed      = "summarization failed"
)

// ErrNotConfigured is returned by calls which need the model when no API key is set
var ErrNotConfigured = errors.New("llm is not configured")

// errMalformed marks a response which is not the expected JSON, such responses are retried
var errMalformed = errors.New("malformed model response")

// legacy markers left in the archive by earlier runs
var legacyMarkers = []string{"정보를 불러오는 중", "내용 없음", "[번역 불가]"}

// FailureMarkers returns all summary markers meaning the enrichment did not happen
func FailureMarkers() []string {
	return append([]string{MarkerFailed, MarkerUnavailable}, legacyMarkers...)
}

// EnrichRequest is the input of a single enrichment
type EnrichRequest struct {
	Title    string // original title
	Body     string // extracted article text
	Reaction string // community comments block, optional
}

// Enricher produces localized editorial fields for entries
type Enricher struct {
	client    *openai.Client
	config    config.LLMConfig
	systemMsg string
	policy    retry.Policy
	sanitizer *bluemonday.Policy
	schema    *jsonschema.Schema
}

// NewEnricher creates an enricher. Without API key it only returns fallback structures.
func NewEnricher(cfg config.LLMConfig) *Enricher {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}
	clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	systemMsg := cfg.SystemPrompt
	if systemMsg == "" {
		systemMsg = defaultSystemPrompt
	}

	e := &Enricher{
		client:    openai.NewClientWithConfig(clientConfig),
		config:    cfg,
		systemMsg: systemMsg,
		sanitizer: bluemonday.NewPolicy().AllowElements("p", "h3", "h4", "blockquote", "ul", "ol", "li", "b", "strong", "em", "i", "br"),
		schema:    (&jsonschema.Reflector{DoNotReference: true, ExpandedStruct: true}).Reflect(&domain.EnrichedFields{}),
	}
	e.policy = retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		Backoff:     retry.Exponential(cfg.Retry.BaseDelay, cfg.Retry.Jitter),
		Retryable: func(err error) bool {
			return isRateLimit(err) || errors.Is(err, errMalformed)
		},
		OnRetry: func(attempt int, delay time.Duration, err error) {
			lgr.Printf("[WARN] enrichment attempt %d failed, retry in %v: %v", attempt+1, delay.Truncate(time.Millisecond), err)
		},
	}
	return e
}

// Configured reports whether the model can be called
func (e *Enricher) Configured() bool {
	return e.config.APIKey != ""
}

// Fallback is returned without calling the model, when it is not configured or the body is too short
func Fallback(title string) domain.EnrichedFields {
	return domain.EnrichedFields{TitleKR: title, SummaryKR: MarkerUnavailable, Keywords: []string{}}
}

// Failure is returned when the model call failed or retries were exhausted
func Failure(title string) domain.EnrichedFields {
	return domain.EnrichedFields{TitleKR: title, SummaryKR: MarkerFailed, Keywords: []string{}}
}

// Enrich returns editorial fields for the article. It never fails, on any problem
// a synthetic structure with a marker summary is returned.
func (e *Enricher) Enrich(ctx context.Context, req EnrichRequest) domain.EnrichedFields {
	if !e.Configured() {
		return Fallback(req.Title)
	}
	body := strings.TrimSpace(req.Body)
	if utf8.RuneCountInString(body) < e.config.MinBodyLength {
		lgr.Printf("[DEBUG] body of %q is too short for enrichment, %d chars", req.Title, utf8.RuneCountInString(body))
		return Fallback(req.Title)
	}

	prompt := e.buildPrompt(req.Title, truncateRunes(body, e.config.MaxInputChars), req.Reaction)

	var fields domain.EnrichedFields
	err := e.policy.Do(ctx, func(ctx context.Context) error {
		f, err := e.complete(ctx, prompt)
		if err != nil {
			return err
		}
		fields = f
		return nil
	})
	if err != nil {
		lgr.Printf("[WARN] enrichment of %q failed: %v", req.Title, err)
		return Failure(req.Title)
	}
	return e.finalize(fields, req)
}

// ConfirmRelevance asks the model whether a discussion thread is about the same story as the article
func (e *Enricher) ConfirmRelevance(ctx context.Context, title, threadTitle string, comments []string) (bool, error) {
	if !e.Configured() {
		return false, ErrNotConfigured
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("News headline: %s\n", title))
	sb.WriteString(fmt.Sprintf("Discussion thread title: %s\n", threadTitle))
	if len(comments) > 0 {
		sb.WriteString("Top comments:\n")
		for _, c := range comments {
			sb.WriteString("- " + c + "\n")
		}
	}
	sb.WriteString("\nIs this discussion about the same story as the headline? ")
	sb.WriteString(`Respond with a JSON object {"relevant": true} or {"relevant": false}.`)

	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.config.Model,
		Temperature: 0,
		MaxTokens:   50,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You check whether an online discussion matches a news story. Be strict."},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return false, fmt.Errorf("relevance request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return false, fmt.Errorf("no response from llm")
	}

	var verdict struct {
		Relevant bool `json:"relevant"`
	}
	if err := json.Unmarshal([]byte(extractJSON(resp.Choices[0].Message.Content)), &verdict); err != nil {
		return false, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return verdict.Relevant, nil
}

// complete makes a single model call and parses the structured response
func (e *Enricher) complete(ctx context.Context, prompt string) (domain.EnrichedFields, error) {
	ctx, cancel := e.withTimeout(ctx)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model:       e.config.Model,
		Temperature: float32(e.config.Temperature),
		MaxTokens:   e.config.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: e.systemMsg},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}
	if e.config.UseJSONSchema {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "enriched_article",
				Schema: e.schema,
			},
		}
	}

	resp, err := e.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return domain.EnrichedFields{}, fmt.Errorf("llm request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.EnrichedFields{}, fmt.Errorf("%w: no choices", errMalformed)
	}
	return parseFields(resp.Choices[0].Message.Content)
}

func (e *Enricher) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.config.Timeout)
}

// parseFields decodes model output, a response without summary is malformed
func parseFields(content string) (domain.EnrichedFields, error) {
	var f domain.EnrichedFields
	if err := json.Unmarshal([]byte(extractJSON(content)), &f); err != nil {
		return domain.EnrichedFields{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if strings.TrimSpace(f.SummaryKR) == "" {
		return domain.EnrichedFields{}, fmt.Errorf("%w: empty summary_kr", errMalformed)
	}
	return f, nil
}

// finalize cleans model output: sanitized body, no platform names, unique keywords
func (e *Enricher) finalize(f domain.EnrichedFields, req EnrichRequest) domain.EnrichedFields {
	f.TitleKR = strings.TrimSpace(f.TitleKR)
	if f.TitleKR == "" {
		f.TitleKR = req.Title
	}
	f.SummaryKR = strings.TrimSpace(f.SummaryKR)
	f.ContentKR = ScrubPlatformNames(strings.TrimSpace(e.sanitizer.Sanitize(f.ContentKR)))
	if strings.TrimSpace(req.Reaction) == "" {
		f.ReactionKR = ""
	}
	f.ReactionKR = ScrubPlatformNames(strings.TrimSpace(f.ReactionKR))
	f.Keywords = uniqueKeywords(f.Keywords)
	return f
}

// isRateLimit detects quota and 429 errors of the provider
func isRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range []string{"429", "quota", "rate limit", "resource_exhausted"} {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// extractJSON strips code fences and text around the outermost JSON object
func extractJSON(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || start >= end {
		return content
	}
	return content[start : end+1]
}

func uniqueKeywords(in []string) []string {
	res := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, k := range in {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		key := strings.ToLower(k)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		res = append(res, k)
	}
	return res
}

func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
