package lesson

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-remedial/internal/db"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	return NewSQLStore(db.OpenTestSQLite(t))
}

func sampleLesson(id, topicID string, order int) Lesson {
	return Lesson{
		ID:      id,
		TopicID: topicID,
		Order:   order,
		Title:   "Lesson " + id,
		XP:      100,
		Tags:    []string{"fractions"},
		Content: []ContentBlock{{Type: "info", Text: "A fraction is a part of a whole."}},
		Assessment: Assessment{
			PassingScore: 80,
			Questions: []Question{{
				ID:              "q1",
				QuestionText:    "What is 1/2 + 1/2?",
				QuizType:        "multiple-choice",
				Tags:            []string{"fractions", "addition"},
				Options:         []Option{{ID: "a", Text: "1"}, {ID: "b", Text: "2"}},
				CorrectAnswerID: "a",
				Explanation:     "Two halves make a whole.",
			}},
		},
	}
}

func mustTopic(t *testing.T, s *SQLStore, name string) Topic {
	t.Helper()
	tp, err := s.UpsertTopic(context.Background(), name)
	require.NoError(t, err)
	return tp
}

func TestSQLStore_PutGetLesson(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tp := mustTopic(t, s, "Fractions")

	require.NoError(t, s.PutLesson(ctx, sampleLesson("l1", tp.ID, 1)))

	got, err := s.GetLesson(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Lesson l1", got.Title)
	assert.Equal(t, 80, got.Assessment.PassingScore)
	require.Len(t, got.Assessment.Questions, 1)
	assert.Equal(t, "a", got.Assessment.Questions[0].CorrectAnswerID)
	assert.NotZero(t, got.CreatedAt)

	_, err = s.GetLesson(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStore_ListByTopicOrdered(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tp := mustTopic(t, s, "Fractions")

	require.NoError(t, s.PutLesson(ctx, sampleLesson("l3", tp.ID, 3)))
	require.NoError(t, s.PutLesson(ctx, sampleLesson("l1", tp.ID, 1)))
	require.NoError(t, s.PutLesson(ctx, sampleLesson("l2", tp.ID, 2)))

	got, err := s.ListByTopic(ctx, tp.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"l1", "l2", "l3"}, []string{got[0].ID, got[1].ID, got[2].ID})

	empty, err := s.ListByTopic(ctx, "no-such-topic")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLStore_UpsertTopicIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tp, err := s.UpsertTopic(ctx, "Geometry")
			if assert.NoError(t, err) {
				ids[i] = tp.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	var n int
	require.NoError(t, s.db.Get(&n, `SELECT COUNT(*) FROM topics WHERE name='Geometry'`))
	assert.Equal(t, 1, n)
}

func TestSQLStore_AppendLessonsAfterMaxOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	tp := mustTopic(t, s, "Fractions")
	require.NoError(t, s.PutLesson(ctx, sampleLesson("existing", tp.ID, 4)))

	added, err := s.AppendLessons(ctx, tp.ID, []Lesson{sampleLesson("", "", 0), sampleLesson("", "", 0)})
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, 5, added[0].Order)
	assert.Equal(t, 6, added[1].Order)
	assert.NotEmpty(t, added[0].ID)
	assert.NotEqual(t, added[0].ID, added[1].ID)
	assert.Equal(t, tp.ID, added[1].TopicID)

	all, err := s.ListByTopic(ctx, tp.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLStore_SnippetsByTags(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.PutSnippet(ctx, ContentSnippet{ID: "s2", Tags: []string{"addition", "fractions"}, Content: "Add numerators."}))
	require.NoError(t, s.PutSnippet(ctx, ContentSnippet{ID: "s1", Tags: []string{"fractions"}, Content: "Halves and quarters."}))
	require.NoError(t, s.PutSnippet(ctx, ContentSnippet{ID: "s3", Tags: []string{"geometry"}, Content: "Angles."}))

	got, err := s.SnippetsByTags(ctx, []string{"fractions", "addition"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].ID)
	assert.Equal(t, "s2", got[1].ID)
	assert.Equal(t, []string{"addition", "fractions"}, got[1].Tags)

	none, err := s.SnippetsByTags(ctx, []string{"calculus"})
	require.NoError(t, err)
	assert.Empty(t, none)

	none, err = s.SnippetsByTags(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLesson_WithoutAnswerKeys(t *testing.T) {
	l := sampleLesson("l1", "t1", 1)
	safe := l.WithoutAnswerKeys()

	assert.Empty(t, safe.Assessment.Questions[0].CorrectAnswerID)
	assert.Empty(t, safe.Assessment.Questions[0].Explanation)
	assert.Equal(t, "a", l.Assessment.Questions[0].CorrectAnswerID, "original left intact")
}
