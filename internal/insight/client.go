package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider is one hosted text-generation endpoint speaking the OpenAI
// chat-completions protocol.
type Provider struct {
	Name    string
	Model   string
	BaseURL string
	APIKey  string
	Headers map[string]string // extra headers, e.g. OpenRouter's HTTP-Referer / X-Title
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// chatClient calls a single provider.
type chatClient struct {
	provider    Provider
	endpoint    string
	temperature float64
	httpClient  *http.Client
}

func newChatClient(p Provider, temperature float64, timeout time.Duration) (*chatClient, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("%s: API key not configured", p.Name)
	}
	if p.Model == "" {
		return nil, fmt.Errorf("%s: model not configured", p.Name)
	}
	u, err := url.Parse(p.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%s: invalid base URL %q", p.Name, p.BaseURL)
	}
	return &chatClient{
		provider:    p,
		endpoint:    strings.TrimRight(p.BaseURL, "/") + "/chat/completions",
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}, nil
}

// checkResp returns an error including the upstream body if the status is not 2xx.
func checkResp(resp *http.Response, service string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%s returned %d: %s", service, resp.StatusCode, strings.TrimSpace(string(body)))
}

// complete sends prompt as a single user message and returns the trimmed reply.
func (c *chatClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.provider.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.provider.APIKey)
	for k, v := range c.provider.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResp(resp, c.provider.Name); err != nil {
		return "", err
	}

	var out chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
