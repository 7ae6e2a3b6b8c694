package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-remedial/internal/lesson"
)

func fourQuestions() []lesson.Question {
	return []lesson.Question{
		{ID: "q1", CorrectAnswerID: "a", Tags: []string{"fractions"}},
		{ID: "q2", CorrectAnswerID: "b", Tags: []string{"decimals"}},
		{ID: "q3", CorrectAnswerID: "c", Tags: []string{"percent", "ratios"}},
		{ID: "q4", CorrectAnswerID: "d", Tags: []string{"fractions"}},
	}
}

func TestScore_ThreeOfFour(t *testing.T) {
	res, err := Score(fourQuestions(), []Answer{
		{QuestionID: "q1", SelectedOptionID: "a"},
		{QuestionID: "q2", SelectedOptionID: "b"},
		{QuestionID: "q3", SelectedOptionID: "x"},
		{QuestionID: "q4", SelectedOptionID: "d"},
	})
	require.NoError(t, err)
	assert.Equal(t, 75, res.Score)
	assert.Equal(t, 3, res.Correct)
	assert.Equal(t, []string{"percent", "ratios"}, res.WeakTags)
	assert.False(t, Passed(res.Score, 80))
}

func TestScore_AllCorrect(t *testing.T) {
	res, err := Score(fourQuestions(), []Answer{
		{QuestionID: "q1", SelectedOptionID: "a"},
		{QuestionID: "q2", SelectedOptionID: "b"},
		{QuestionID: "q3", SelectedOptionID: "c"},
		{QuestionID: "q4", SelectedOptionID: "d"},
	})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)
	assert.Empty(t, res.WeakTags)
	assert.True(t, Passed(res.Score, 80))
}

func TestScore_UnknownIDsIgnored(t *testing.T) {
	res, err := Score(fourQuestions(), []Answer{
		{QuestionID: "q1", SelectedOptionID: "a"},
		{QuestionID: "nope", SelectedOptionID: "z"},
	})
	require.NoError(t, err)
	assert.Equal(t, 25, res.Score)
	assert.Empty(t, res.WeakTags, "omitted and unknown questions add no tags")
}

func TestScore_DuplicateAnswerCountsOnce(t *testing.T) {
	res, err := Score(fourQuestions(), []Answer{
		{QuestionID: "q1", SelectedOptionID: "a"},
		{QuestionID: "q1", SelectedOptionID: "a"},
		{QuestionID: "q1", SelectedOptionID: "a"},
		{QuestionID: "q1", SelectedOptionID: "a"},
		{QuestionID: "q1", SelectedOptionID: "a"},
	})
	require.NoError(t, err)
	assert.Equal(t, 25, res.Score)

	res, err = Score(fourQuestions(), []Answer{
		{QuestionID: "q2", SelectedOptionID: "wrong"},
		{QuestionID: "q2", SelectedOptionID: "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Correct)
	assert.Equal(t, []string{"decimals"}, res.WeakTags)
}

func TestScore_SharedTagStaysWeak(t *testing.T) {
	res, err := Score(fourQuestions(), []Answer{
		{QuestionID: "q1", SelectedOptionID: "a"},
		{QuestionID: "q4", SelectedOptionID: "wrong"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"fractions"}, res.WeakTags)
}

func TestScore_RoundsHalfUp(t *testing.T) {
	qs := make([]lesson.Question, 8)
	for i := range qs {
		qs[i] = lesson.Question{ID: string(rune('a' + i)), CorrectAnswerID: "ok"}
	}
	res, err := Score(qs, []Answer{{QuestionID: "a", SelectedOptionID: "ok"}})
	require.NoError(t, err)
	assert.Equal(t, 13, res.Score) // 12.5

	qs = qs[:3]
	res, err = Score(qs, []Answer{{QuestionID: "a", SelectedOptionID: "ok"}, {QuestionID: "b", SelectedOptionID: "ok"}})
	require.NoError(t, err)
	assert.Equal(t, 67, res.Score)
}

func TestScore_NoQuestions(t *testing.T) {
	_, err := Score(nil, []Answer{{QuestionID: "q1", SelectedOptionID: "a"}})
	assert.ErrorIs(t, err, ErrInvalidAssessment)
}

func TestPassed_BoundaryInclusive(t *testing.T) {
	assert.True(t, Passed(80, 80))
	assert.False(t, Passed(79, 80))
}
