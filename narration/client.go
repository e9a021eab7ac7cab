package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Rewriter turns a prepared input into a friendlier narrative.
// Implementations make a single attempt and honor ctx.
type Rewriter interface {
	Rewrite(ctx context.Context, in Input) (Narrative, error)
}

const (
	DefaultBaseURL = "https://router.huggingface.co/v1"
	DefaultModel   = "mistralai/Mistral-7B-Instruct-v0.3"
	DefaultTimeout = 20 * time.Second

	maxResponseBytes = 64 * 1024
)

var (
	ErrMissingAPIKey = errors.New("narration API key is missing")
	ErrNoPayload     = errors.New("rewrite response did not include a JSON payload")
	ErrEmptyResponse = errors.New("rewrite response missing message content")
)

// APIError is a non-2xx answer from the completion endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("narration API failed (%d): %s", e.StatusCode, e.Message)
}

// ChatConfig configures a ChatClient. Zero values fall back to the defaults.
type ChatConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// ChatClient rewrites through an OpenAI-compatible chat completion endpoint.
type ChatClient struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewChatClient(cfg ChatConfig) *ChatClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ChatClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Model returns the model name sent with each request.
func (c *ChatClient) Model() string { return c.model }

// =============================================================================
// WIRE TYPES
// =============================================================================

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string             `json:"model"`
	Messages       []chatMessage      `json:"messages"`
	MaxTokens      int                `json:"max_tokens"`
	Temperature    float64            `json:"temperature"`
	ResponseFormat chatResponseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// errorBody covers both {"error": "msg"} and {"error": {"message": "msg"}}.
type errorBody struct {
	Error json.RawMessage `json:"error"`
}

// =============================================================================
// REWRITE
// =============================================================================

// Rewrite sends one completion request. No retries.
func (c *ChatClient) Rewrite(ctx context.Context, in Input) (Narrative, error) {
	if c.apiKey == "" {
		return Narrative{}, ErrMissingAPIKey
	}

	prompt, err := BuildPrompt(in)
	if err != nil {
		return Narrative{}, err
	}
	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens:      500,
		Temperature:    0.2,
		ResponseFormat: chatResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return Narrative{}, fmt.Errorf("failed to encode rewrite request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Narrative{}, fmt.Errorf("failed to build rewrite request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Narrative{}, fmt.Errorf("rewrite request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Narrative{}, fmt.Errorf("failed to read rewrite response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Narrative{}, &APIError{StatusCode: resp.StatusCode, Message: apiErrorMessage(raw, resp.StatusCode)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Narrative{}, fmt.Errorf("failed to parse rewrite response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == nil {
		return Narrative{}, ErrEmptyResponse
	}

	payload, err := ExtractJSONPayload(*parsed.Choices[0].Message.Content)
	if err != nil {
		return Narrative{}, err
	}
	var n Narrative
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return Narrative{}, fmt.Errorf("failed to parse narrative: %w", err)
	}
	return n, nil
}

func apiErrorMessage(raw []byte, status int) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if err := json.Unmarshal(body.Error, &flat); err == nil && flat != "" {
			return flat
		}
	}
	return http.StatusText(status)
}

// ExtractJSONPayload strips markdown fences and returns the text between the
// first "{" and the last "}".
func ExtractJSONPayload(text string) (string, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first == -1 || last <= first {
		return "", ErrNoPayload
	}
	return cleaned[first : last+1], nil
}

// =============================================================================
// PROMPT
// =============================================================================

// BuildPrompt renders the rewrite instructions. Only numbers already in the
// input appear in the prompt.
func BuildPrompt(in Input) (string, error) {
	explanation, err := json.MarshalIndent(in.StructuredExplanation, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode explanation: %w", err)
	}

	var b strings.Builder
	b.WriteString(`You are helping explain parental leave calculations in a friendly, supportive way.

SAFETY RULES:
1. NEVER introduce numbers that are not in the input below
2. NEVER perform calculations or math
3. ONLY rephrase the provided explanation in natural, conversational language
4. Keep the tone warm, supportive, and non-judgmental

FORMAT:
- Respond with JSON only (no markdown, no code fences)
- friendlySummary: a short paragraph of 2-3 sentences
- whatDroveTheGap: 2-4 concise strings
- thingsToDoubleCheck: 2-4 concise strings
- Fill the lists from the assumptions, caps and warnings below

`)
	fmt.Fprintf(&b, "Jurisdiction: %s\n", in.Jurisdiction)
	fmt.Fprintf(&b, "Salary: $%s\n", Thousands(formatMoney(in.UserInputs.Salary)))
	fmt.Fprintf(&b, "Leave duration: %s weeks\n\n", formatPlain(in.UserInputs.LeaveWeeks))
	b.WriteString("Calculation results:\n")
	fmt.Fprintf(&b, "- Paid weeks: %s\n", formatPlain(in.CalculationSummary.PaidWeeks))
	fmt.Fprintf(&b, "- Unpaid weeks: %s\n", formatPlain(in.CalculationSummary.UnpaidWeeks))
	fmt.Fprintf(&b, "- Total income gap: $%s\n\n", Thousands(formatMoney(in.CalculationSummary.TotalGap)))
	b.WriteString("Structured explanation:\n")
	b.Write(explanation)
	b.WriteString(`

JSON schema:
{
  "friendlySummary": "overview in a warm, supportive tone",
  "whatDroveTheGap": ["first reason the income gap exists", "..."],
  "thingsToDoubleCheck": ["first thing to verify with the employer or state", "..."]
}
`)
	return b.String(), nil
}
