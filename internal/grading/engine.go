package grading

import (
	"errors"
	"math"

	"github.com/mind-engage/mindengage-remedial/internal/lesson"
)

// ErrInvalidAssessment is returned when an assessment has no questions to score against.
var ErrInvalidAssessment = errors.New("assessment has no questions")

// Answer is one learner selection.
type Answer struct {
	QuestionID       string `json:"questionId" validate:"required"`
	SelectedOptionID string `json:"selectedOptionId" validate:"required"`
}

// Result is the outcome of scoring one submission.
type Result struct {
	Score    int      // 0..100
	Correct  int      // questions answered correctly
	Total    int      // questions in the assessment
	WeakTags []string // tags of wrongly answered questions, first-seen order
}

// Score grades answers against questions. Answers to unknown questions are
// skipped, a question answered twice counts once (first answer wins) and
// unanswered questions lower the score without adding weak tags.
func Score(questions []lesson.Question, answers []Answer) (Result, error) {
	if len(questions) == 0 {
		return Result{}, ErrInvalidAssessment
	}
	byID := make(map[string]lesson.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	res := Result{Total: len(questions), WeakTags: []string{}}
	seen := make(map[string]struct{}, len(answers))
	weak := map[string]struct{}{}

	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}

		if a.SelectedOptionID == q.CorrectAnswerID {
			res.Correct++
			continue
		}
		for _, t := range q.Tags {
			if _, ok := weak[t]; ok {
				continue
			}
			weak[t] = struct{}{}
			res.WeakTags = append(res.WeakTags, t)
		}
	}

	res.Score = int(math.Round(float64(res.Correct) / float64(res.Total) * 100))
	return res, nil
}

// Passed reports whether score meets the passing threshold (inclusive).
func Passed(score, passingScore int) bool {
	return score >= passingScore
}
