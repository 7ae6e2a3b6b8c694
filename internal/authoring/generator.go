package authoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-remedial/internal/lesson"
	"github.com/mind-engage/mindengage-remedial/internal/llm"
	"github.com/mind-engage/mindengage-remedial/internal/logger"
)

const EventLessonsGenerated = "lessons.generated"

type Store interface {
	UpsertTopic(ctx context.Context, name string) (lesson.Topic, error)
	AppendLessons(ctx context.Context, topicID string, ls []lesson.Lesson) ([]lesson.Lesson, error)
}

type EventSink interface {
	Append(ctx context.Context, typ, key string, data any) error
}

type Options struct {
	LessonsPerTopic int
	Concurrency     int
	RetryAttempts   uint
	RetryDelay      time.Duration
	TopicTimeout    time.Duration
	MaxTokens       int
	Temperature     float64
}

func (o Options) withDefaults() Options {
	if o.LessonsPerTopic <= 0 {
		o.LessonsPerTopic = 5
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.RetryAttempts == 0 {
		o.RetryAttempts = 1
	}
	if o.TopicTimeout <= 0 {
		o.TopicTimeout = 90 * time.Second
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 8192
	}
	return o
}

// Generator creates lesson batches for topics. A topic that fails after all
// attempts maps to an empty list; other topics are unaffected.
type Generator struct {
	store    Store
	provider llm.Provider
	events   EventSink
	opts     Options
	schema   *llm.Schema
	log      *logger.Logger
}

func NewGenerator(store Store, p llm.Provider, events EventSink, opts Options, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.Nop()
	}
	opts = opts.withDefaults()
	return &Generator{
		store:    store,
		provider: p,
		events:   events,
		opts:     opts,
		schema:   lessonBatchSchema(opts.LessonsPerTopic),
		log:      log.With("component", "authoring"),
	}
}

// Generate returns an entry for every distinct non-blank topic.
func (g *Generator) Generate(ctx context.Context, topics []string) map[string][]lesson.Lesson {
	names := normalizeTopics(topics)
	results := make(map[string][]lesson.Lesson, len(names))
	var mu sync.Mutex

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Concurrency)
	for _, name := range names {
		eg.Go(func() error {
			ls, err := g.generateTopic(egctx, name)
			if err != nil {
				g.log.Error("topic generation failed", "topic", name, "error", err)
				ls = []lesson.Lesson{}
			}
			mu.Lock()
			results[name] = ls
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (g *Generator) generateTopic(ctx context.Context, name string) ([]lesson.Lesson, error) {
	topic, err := g.store.UpsertTopic(ctx, name)
	if err != nil {
		return nil, err
	}

	var drafts []lesson.Lesson
	err = retry.Do(
		func() error {
			d, err := g.draft(ctx, name)
			if err != nil {
				if ctx.Err() != nil {
					return retry.Unrecoverable(err)
				}
				return err
			}
			drafts = d
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(g.opts.RetryAttempts),
		retry.Delay(g.opts.RetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			g.log.Warn("retrying topic", "topic", name, "attempt", n+1, "invalid_shape", IsInvalidShape(err), "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	saved, err := g.store.AppendLessons(ctx, topic.ID, drafts)
	if err != nil {
		return nil, fmt.Errorf("save lessons: %w", err)
	}
	if g.events != nil {
		ids := make([]string, len(saved))
		for i, l := range saved {
			ids[i] = l.ID
		}
		if err := g.events.Append(ctx, EventLessonsGenerated, topic.ID, map[string]any{"topic": name, "lesson_ids": ids}); err != nil {
			g.log.Warn("record generation event failed", "topic", name, "error", err)
		}
	}
	g.log.Info("lessons generated", "topic", name, "count", len(saved))
	return saved, nil
}

// draft makes one generator call and validates the reply.
func (g *Generator) draft(ctx context.Context, topic string) ([]lesson.Lesson, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.TopicTimeout)
	defer cancel()

	req := llm.UserPrompt("", buildLessonsPrompt(topic, g.opts.LessonsPerTopic), g.opts.MaxTokens, g.opts.Temperature)
	req.Schema = g.schema
	resp, err := g.provider.Generate(llm.WithPurpose(ctx, "lesson_batch"), req)
	if err != nil {
		return nil, err
	}

	clean := []byte(llm.StripFences(string(resp.Content)))
	if _, err := llm.Validate(g.schema, clean); err != nil {
		return nil, err
	}
	var out []lesson.Lesson
	if err := json.Unmarshal(clean, &out); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: clean, Err: err}
	}
	for i, l := range out {
		if err := checkAnswerKeys(l); err != nil {
			return nil, &llm.ErrInvalidResponse{Content: clean, Err: fmt.Errorf("lesson %d: %w", i, err)}
		}
	}
	return out, nil
}

func checkAnswerKeys(l lesson.Lesson) error {
	seen := map[string]struct{}{}
	for _, q := range l.Assessment.Questions {
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
		found := false
		for _, o := range q.Options {
			if o.ID == q.CorrectAnswerID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("question %q: correctAnswerId %q is not an option", q.ID, q.CorrectAnswerID)
		}
	}
	return nil
}

func buildLessonsPrompt(topic string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert instructional designer. For the topic %q, generate a JSON array of %d unique, beginner-level lessons.\n", topic, n)
	b.WriteString("Your response MUST be a single, raw JSON array. Do not include any text, comments, or markdown fences.\n")
	b.WriteString(`Each object in the array must have this structure: { "title": "...", "xp": 100, "estimatedMinutes": 5, "difficulty": "beginner", "tags": [], "content": [{ "type": "info", "text": "..." }], "assessment": { "passingScore": 80, "questions": [{ "id": "q1", "questionText": "...", "quizType": "multiple-choice", "tags": [], "options": [{ "id": "a", "text": "..." }], "correctAnswerId": "a", "explanation": "..." }] } }`)
	b.WriteString("\nTag every question with the concepts it tests; correctAnswerId must be the id of one of its options.\n")
	return b.String()
}

func normalizeTopics(topics []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(topics))
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// IsInvalidShape reports whether err came from rejecting generator output.
func IsInvalidShape(err error) bool {
	var inv *llm.ErrInvalidResponse
	return errors.As(err, &inv)
}
