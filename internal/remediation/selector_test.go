package remediation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-remedial/internal/db"
	"github.com/mind-engage/mindengage-remedial/internal/lesson"
	"github.com/mind-engage/mindengage-remedial/internal/llm"
	"github.com/mind-engage/mindengage-remedial/internal/synth"
)

const remedialJSON = `{"title":"Review","estimatedMinutes":4,"difficulty":"beginner","content":[{"type":"info","text":"Recap."}]}`

type memCache struct {
	mu   sync.Mutex
	m    map[string]synth.RemedialLesson
	sets int
	err  error
}

func (c *memCache) Get(_ context.Context, tags []string) (synth.RemedialLesson, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return synth.RemedialLesson{}, false, c.err
	}
	l, ok := c.m[Signature(tags)]
	return l, ok, nil
}

func (c *memCache) Set(_ context.Context, tags []string, l synth.RemedialLesson) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	if c.m == nil {
		c.m = map[string]synth.RemedialLesson{}
	}
	c.m[Signature(tags)] = l
	c.sets++
	return nil
}

type failingArchive struct{ calls int }

func (a *failingArchive) Save(context.Context, string, string, string, synth.RemedialLesson) error {
	a.calls++
	return errors.New("db gone")
}

func seededStore(t *testing.T) *lesson.SQLStore {
	t.Helper()
	s := lesson.NewSQLStore(db.OpenTestSQLite(t))
	ctx := context.Background()
	require.NoError(t, s.PutSnippet(ctx, lesson.ContentSnippet{ID: "b", Tags: []string{"ratios"}, Content: "Ratios compare."}))
	require.NoError(t, s.PutSnippet(ctx, lesson.ContentSnippet{ID: "a", Tags: []string{"percent", "ratios"}, Content: "Percent means per hundred."}))
	require.NoError(t, s.PutSnippet(ctx, lesson.ContentSnippet{ID: "c", Tags: []string{"geometry"}, Content: "Angles."}))
	return s
}

func TestSelector_Retrieval(t *testing.T) {
	sel, err := NewSelector(ModeRetrieval, seededStore(t), nil, nil)
	require.NoError(t, err)

	p, err := sel.Select(context.Background(), Request{UserID: "u", LessonID: "l", WeakTags: []string{"percent", "ratios"}})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, KindRetrieved, p.Kind)
	assert.Equal(t, []string{"Percent means per hundred.", "Ratios compare."}, p.Snippets)
	assert.Nil(t, p.Lesson)
}

func TestSelector_RetrievalNoMatches(t *testing.T) {
	sel, err := NewSelector(ModeRetrieval, seededStore(t), nil, nil)
	require.NoError(t, err)

	p, err := sel.Select(context.Background(), Request{WeakTags: []string{"calculus"}})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Empty(t, p.Snippets)
}

func TestSelector_EmptyTagsSkips(t *testing.T) {
	mock := llm.NewMockProvider()
	sel, err := NewSelector(ModeSynthesis, nil, synth.New(mock, synth.Options{}, nil), nil)
	require.NoError(t, err)

	p, err := sel.Select(context.Background(), Request{WeakTags: nil})
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Zero(t, mock.CallCount())
}

func TestSelector_SynthesisCachesAndArchives(t *testing.T) {
	h := db.OpenTestSQLite(t)
	mock := llm.NewMockProvider(llm.MockText(remedialJSON))
	cache := &memCache{}
	archive := NewSQLArchive(h)
	sel, err := NewSelector(ModeSynthesis, nil, synth.New(mock, synth.Options{}, nil), nil,
		WithCache(cache), WithArchive(archive))
	require.NoError(t, err)
	ctx := context.Background()

	p, err := sel.Select(ctx, Request{UserID: "u1", LessonID: "l1", WeakTags: []string{"ratios", "percent"}})
	require.NoError(t, err)
	require.NotNil(t, p.Lesson)
	assert.Equal(t, KindSynthesized, p.Kind)
	assert.Equal(t, "Review", p.Lesson.Title)
	assert.Equal(t, 1, cache.sets)

	// same signature in another order hits the cache
	p, err = sel.Select(ctx, Request{UserID: "u2", LessonID: "l1", WeakTags: []string{"percent", "ratios"}})
	require.NoError(t, err)
	assert.Equal(t, "Review", p.Lesson.Title)
	assert.Equal(t, []string{"percent", "ratios"}, p.Lesson.Tags)
	assert.Equal(t, 1, mock.CallCount())

	saved, err := archive.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "mock", saved[0].Model)
	assert.Contains(t, saved[0].BodyJSON, `"Review"`)
}

func TestSelector_SideEffectFailuresIgnored(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(remedialJSON))
	arch := &failingArchive{}
	sel, err := NewSelector(ModeSynthesis, nil, synth.New(mock, synth.Options{}, nil), nil,
		WithCache(&memCache{err: errors.New("redis down")}), WithArchive(arch))
	require.NoError(t, err)

	p, err := sel.Select(context.Background(), Request{WeakTags: []string{"ratios"}})
	require.NoError(t, err)
	require.NotNil(t, p.Lesson)
	assert.Equal(t, 1, arch.calls)
}

func TestSelector_GenerationErrorSurfaces(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockText(`[]`))
	sel, err := NewSelector(ModeSynthesis, nil, synth.New(mock, synth.Options{}, nil), nil)
	require.NoError(t, err)

	_, err = sel.Select(context.Background(), Request{WeakTags: []string{"ratios"}})
	var ge *synth.GenerationError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, synth.InvalidShape, ge.Kind)
}

func TestNewSelector_Validation(t *testing.T) {
	_, err := NewSelector(ModeRetrieval, nil, nil, nil)
	assert.Error(t, err)
	_, err = NewSelector(ModeSynthesis, nil, nil, nil)
	assert.Error(t, err)
	_, err = NewSelector(Mode("magic"), nil, nil, nil)
	assert.Error(t, err)
}

func TestSignature(t *testing.T) {
	assert.Equal(t, Signature([]string{"a", "b"}), Signature([]string{"b", "a", "a"}))
	assert.NotEqual(t, Signature([]string{"a"}), Signature([]string{"a", "b"}))
	assert.Len(t, Signature(nil), 64)
}

func TestRedisCache_UnreachableIsAnError(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	c := NewRedisCache(rdb, time.Minute)

	_, ok, err := c.Get(context.Background(), []string{"x"})
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, "remedial:"+Signature([]string{"x"}), c.key([]string{"x"}))
}
