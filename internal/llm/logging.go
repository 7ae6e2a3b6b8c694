package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-remedial/internal/logger"
)

const EventTypeRequest = "llm.request"

// EventSink receives one audit record per generator call.
type EventSink interface {
	Append(ctx context.Context, typ, key string, data any) error
}

type RequestEvent struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Purpose      string `json:"purpose"`
	LatencyMs    int64  `json:"latency_ms"`
	Success      bool   `json:"success"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	RequestBody  string `json:"request_body"`
	ResponseBody string `json:"response_body,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
}

// LoggingProvider records every request it forwards.
type LoggingProvider struct {
	inner Provider
	sink  EventSink
	log   *logger.Logger
}

func WithLogging(p Provider, sink EventSink, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingProvider{inner: p, sink: sink, log: log.With("component", "llm")}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	ev := RequestEvent{
		Provider:    l.inner.ModelID(),
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.Model = resp.Model
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	// the caller's ctx may already be past its deadline
	if logErr := l.sink.Append(context.WithoutCancel(ctx), EventTypeRequest, purpose, ev); logErr != nil {
		l.log.Warn("failed to record llm request", "purpose", purpose, "error", logErr)
	}
	l.log.Debug("llm request", "purpose", purpose, "model", ev.Model, "latency_ms", ev.LatencyMs, "success", ev.Success)

	return resp, err
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func serializeRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n", m.Role)
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n", req.Schema.Name)
			b.Write(def)
			b.WriteString("\n")
		}
	}
	return b.String()
}
