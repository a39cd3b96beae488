// Package classify implements the natural-language classification gateway.
// It sends raw capture text plus a reference timestamp to an external LLM
// provider and validates the response into a strict tagged union over the
// five record kinds.
package classify

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Config holds configuration for the classifier gateway.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	RateLimit   int
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}
