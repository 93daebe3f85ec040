package generator

import (
	"context"
	"errors"
	"fmt"
)

// LLMClient abstracts a chat-completion provider so it can be swapped or mocked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings is the base configuration handed to concrete adapters.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// fallbackContent is returned when a provider answers with an empty payload.
const fallbackContent = "생성 실패"

// ErrMissingCredential is returned by adapter constructors before any network call.
var ErrMissingCredential = errors.New("provider credential missing")

// ProviderError scopes a failed provider call to the provider that produced it.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
