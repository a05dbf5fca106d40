package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ayush/consciousday/backend/internal/config"
	"github.com/ayush/consciousday/backend/internal/logger"
)

const (
	// NoDreamPlaceholder replaces a blank dream before prompting.
	NoDreamPlaceholder = "No dream recorded"
	// FailurePrefix starts every user-facing generation failure message.
	FailurePrefix = "Error processing inputs:"

	defaultTimeout     = 30 * time.Second
	defaultTemperature = 0.7
)

// ErrEmptyResponse is returned when the provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from provider")

// Input is the reflection form content sent to the model.
type Input struct {
	Journal    string
	Intention  string
	Dream      string
	Priorities string
}

// ValidationError reports a required field that was blank. It is returned
// before any provider call is made.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// ProviderError wraps any failure of the provider call: transport errors,
// timeouts, non-2xx answers and empty completions.
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// FailureText renders err the way generation failures are shown to users.
func FailureText(err error) string {
	return FailurePrefix + " " + err.Error()
}

// Config selects providers. Primary is preferred; Fallback is only used when
// the primary client cannot be set up.
type Config struct {
	Primary     Provider
	Fallback    Provider
	Temperature float64
	Timeout     time.Duration
}

// ConfigFrom maps service configuration onto OpenRouter (primary) and OpenAI
// (fallback).
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Primary: Provider{
			Name:    "OpenRouter",
			Model:   cfg.OpenRouterModel,
			BaseURL: cfg.OpenRouterBaseURL,
			APIKey:  cfg.OpenRouterAPIKey,
			Headers: map[string]string{
				"HTTP-Referer": cfg.Referer,
				"X-Title":      cfg.AppTitle,
			},
		},
		Fallback: Provider{
			Name:    "OpenAI",
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
			APIKey:  cfg.OpenAIAPIKey,
		},
		Temperature: cfg.Temperature,
		Timeout:     cfg.GenerateTimeout,
	}
}

// Status describes the active provider.
type Status struct {
	Status      string  `json:"status"`
	Active      bool    `json:"active"`
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

// Generator turns a reflection form into model-written insight text.
type Generator struct {
	client      *chatClient
	timeout     time.Duration
	temperature float64
}

// NewGenerator builds a client for the primary provider, falling back to the
// secondary when the primary cannot be set up. It fails only when neither can.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}

	var setupErrs []error
	for _, p := range []Provider{cfg.Primary, cfg.Fallback} {
		c, err := newChatClient(p, cfg.Temperature, cfg.Timeout)
		if err != nil {
			logger.Warn("insight provider unavailable", "provider", p.Name, "error", err)
			setupErrs = append(setupErrs, err)
			continue
		}
		logger.Info("insight provider ready", "provider", p.Name, "model", p.Model)
		return &Generator{client: c, timeout: cfg.Timeout, temperature: cfg.Temperature}, nil
	}
	return nil, fmt.Errorf("no usable insight provider: %w", errors.Join(setupErrs...))
}

// Normalize trims the form fields, substitutes the dream placeholder and
// checks the required fields.
func Normalize(in Input) (Input, error) {
	in.Journal = strings.TrimSpace(in.Journal)
	in.Intention = strings.TrimSpace(in.Intention)
	in.Priorities = strings.TrimSpace(in.Priorities)
	in.Dream = strings.TrimSpace(in.Dream)

	switch {
	case in.Journal == "":
		return in, &ValidationError{Field: "journal"}
	case in.Intention == "":
		return in, &ValidationError{Field: "intention"}
	case in.Priorities == "":
		return in, &ValidationError{Field: "priorities"}
	}
	if in.Dream == "" {
		in.Dream = NoDreamPlaceholder
	}
	return in, nil
}

// Generate makes one bounded call to the provider. Errors are either a
// *ValidationError or a *ProviderError.
func (g *Generator) Generate(ctx context.Context, in Input) (string, error) {
	in, err := Normalize(in)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	started := time.Now()
	p := g.client.provider
	text, err := g.client.complete(ctx, BuildPrompt(in))
	if err != nil {
		logger.Error("insight generation failed", "provider", p.Name, "model", p.Model,
			"elapsed", time.Since(started), "error", err)
		return "", &ProviderError{Provider: p.Name, Model: p.Model, Err: err}
	}
	logger.Debug("insight generated", "provider", p.Name, "elapsed", time.Since(started), "chars", len(text))
	return text, nil
}

// Status reports the provider in use; a nil or unconfigured generator is inactive.
func (g *Generator) Status() Status {
	if g == nil || g.client == nil {
		return Status{Status: "inactive"}
	}
	return Status{
		Status:      "active",
		Active:      true,
		Provider:    g.client.provider.Name,
		Model:       g.client.provider.Model,
		Temperature: g.temperature,
	}
}
