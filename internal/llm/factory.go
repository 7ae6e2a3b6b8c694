package llm

import (
	"context"
	"fmt"

	"github.com/mind-engage/mindengage-remedial/internal/logger"
)

type Config struct {
	Provider string // anthropic, openai, gemini, mock
	Model    string
	APIKey   string
	BaseURL  string
}

// NewProvider builds the configured provider wrapped with audit logging.
// A nil sink disables auditing.
func NewProvider(ctx context.Context, cfg Config, sink EventSink, log *logger.Logger) (Provider, error) {
	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg)
	case "openai":
		base, err = NewOpenAIProvider(cfg)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	if sink == nil {
		return base, nil
	}
	return WithLogging(base, sink, log), nil
}
