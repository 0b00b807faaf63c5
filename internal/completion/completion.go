// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package completion wraps remote text-completion services behind one
// interface: a prompt goes in, free text comes out.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/deckminer/pkg/types"
)

// Completer sends a prompt to a completion service and returns its text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)

	// Name identifies the provider and model, e.g. "gemini/gemini-2.0-flash-lite".
	Name() string
}

var (
	// ErrNoAPIKey is returned by New when the provider needs a key and none is set.
	ErrNoAPIKey = errors.New("API key is not configured")

	// ErrEmptyResponse is returned when the service answers without any text.
	ErrEmptyResponse = errors.New("completion returned no text")
)

// Default provider and per-provider models.
const (
	DefaultProvider  = "gemini"
	DefaultMaxTokens = 2048
	DefaultTimeout   = 60 * time.Second
)

var defaultModels = map[string]string{
	"gemini":    "gemini-2.0-flash-lite",
	"anthropic": "claude-haiku-4-5-20251001",
	"openai":    "gpt-4o-mini",
}

// Factory builds a Completer from a fully defaulted config.
type Factory func(cfg types.AIConfig) (Completer, error)

var factories = map[string]Factory{
	"gemini":    newGemini,
	"anthropic": newAnthropic,
	"openai":    newOpenAI,
}

// Register adds or replaces a provider factory.
func Register(name string, f Factory) {
	factories[strings.ToLower(name)] = f
}

// Providers lists the registered provider names.
func Providers() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the Completer for cfg.Provider, applying defaults for the
// model, token limit and timeout.
func New(cfg types.AIConfig) (Completer, error) {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = DefaultProvider
	}
	f, ok := factories[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown completion provider %q (have %s)",
			cfg.Provider, strings.Join(Providers(), ", "))
	}
	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Provider]
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return f(cfg)
}

func requireKey(cfg types.AIConfig) error {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return fmt.Errorf("%s: %w", cfg.Provider, ErrNoAPIKey)
	}
	return nil
}

func httpClient(cfg types.AIConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}
