package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/mind-engage/mindengage-remedial/internal/apierr"
	"github.com/mind-engage/mindengage-remedial/internal/grading"
	"github.com/mind-engage/mindengage-remedial/internal/lesson"
	"github.com/mind-engage/mindengage-remedial/internal/logger"
	"github.com/mind-engage/mindengage-remedial/internal/progress"
	"github.com/mind-engage/mindengage-remedial/internal/remediation"
	"github.com/mind-engage/mindengage-remedial/internal/synth"
)

const (
	StatusPassed         = "passed"
	StatusRequiresReview = "requires_review"
)

type Input struct {
	Answers []grading.Answer `json:"answers" validate:"required,dive"`
}

// Result is the response to one submission. Passing results carry the XP and
// next lesson; failing ones carry remediation.
type Result struct {
	Status       string
	Score        int
	XPEarned     int
	NextLessonID *string
	WeakTags     []string

	Remediation      *remediation.Payload
	RemediationError synth.Kind
}

type passedBody struct {
	Status       string  `json:"status"`
	Score        int     `json:"score"`
	XPEarned     int     `json:"xpEarned"`
	NextLessonID *string `json:"nextLessonId"`
}

type reviewBody struct {
	Status           string               `json:"status"`
	Score            int                  `json:"score"`
	WeakTags         []string             `json:"weakTags"`
	Remediation      *remediation.Payload `json:"remediation"`
	RemediationError synth.Kind           `json:"remediationError,omitempty"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Status == StatusPassed {
		return json.Marshal(passedBody{r.Status, r.Score, r.XPEarned, r.NextLessonID})
	}
	tags := r.WeakTags
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(reviewBody{r.Status, r.Score, tags, r.Remediation, r.RemediationError})
}

type LessonSource interface {
	GetLesson(ctx context.Context, id string) (lesson.Lesson, error)
}

type NextResolver interface {
	ResolveNext(ctx context.Context, l lesson.Lesson) (*string, error)
}

type Remediator interface {
	Select(ctx context.Context, req remediation.Request) (*remediation.Payload, error)
}

type Orchestrator struct {
	lessons  LessonSource
	ledger   progress.Ledger
	resolver NextResolver
	remedy   Remediator
	validate *validator.Validate
	log      *logger.Logger
}

func NewOrchestrator(lessons LessonSource, ledger progress.Ledger, resolver NextResolver, remedy Remediator, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{
		lessons:  lessons,
		ledger:   ledger,
		resolver: resolver,
		remedy:   remedy,
		validate: validator.New(),
		log:      log.With("component", "submission"),
	}
}

// Submit grades in, records the attempt and routes the learner. Returned
// errors are *apierr.Error.
func (o *Orchestrator) Submit(ctx context.Context, userID, lessonID string, in Input) (Result, error) {
	if userID == "" {
		return Result{}, apierr.Unauthorized("authentication required")
	}
	if lessonID == "" {
		return Result{}, apierr.BadRequest("lesson id required")
	}
	if err := o.validate.Struct(in); err != nil {
		o.log.Debug("rejected submission", "lesson_id", lessonID, "error", err)
		return Result{}, apierr.BadRequest("invalid submission format")
	}

	l, err := o.lessons.GetLesson(ctx, lessonID)
	if errors.Is(err, lesson.ErrNotFound) {
		return Result{}, apierr.NotFound("lesson not found")
	}
	if err != nil {
		return Result{}, o.internal("load lesson", err, "lesson_id", lessonID)
	}

	graded, err := grading.Score(l.Assessment.Questions, in.Answers)
	if errors.Is(err, grading.ErrInvalidAssessment) {
		o.log.Warn("lesson has no questions", "lesson_id", lessonID)
		return Result{}, apierr.InvalidAssessment("lesson assessment has no questions")
	}
	if err != nil {
		return Result{}, o.internal("score", err, "lesson_id", lessonID)
	}

	if _, err := o.ledger.RecordAttempt(ctx, userID, lessonID, graded.Score, in.Answers, l.Assessment.PassingScore); err != nil {
		return Result{}, o.internal("record attempt", err, "user_id", userID, "lesson_id", lessonID)
	}

	if grading.Passed(graded.Score, l.Assessment.PassingScore) {
		next, err := o.resolver.ResolveNext(ctx, l)
		if err != nil {
			return Result{}, o.internal("resolve next lesson", err, "lesson_id", lessonID)
		}
		o.log.Info("assessment passed", "user_id", userID, "lesson_id", lessonID, "score", graded.Score)
		return Result{Status: StatusPassed, Score: graded.Score, XPEarned: l.XP, NextLessonID: next}, nil
	}

	res := Result{Status: StatusRequiresReview, Score: graded.Score, WeakTags: graded.WeakTags}
	payload, err := o.remedy.Select(ctx, remediation.Request{UserID: userID, LessonID: lessonID, WeakTags: graded.WeakTags})
	var genErr *synth.GenerationError
	switch {
	case errors.As(err, &genErr):
		o.log.Warn("remediation degraded", "user_id", userID, "lesson_id", lessonID, "kind", genErr.Kind, "error", genErr.Err)
		res.RemediationError = genErr.Kind
	case err != nil:
		return Result{}, o.internal("remediation", err, "lesson_id", lessonID)
	default:
		res.Remediation = payload
	}
	o.log.Info("assessment requires review", "user_id", userID, "lesson_id", lessonID, "score", graded.Score, "weak_tags", graded.WeakTags)
	return res, nil
}

func (o *Orchestrator) internal(step string, err error, kv ...interface{}) error {
	o.log.Error("submission failed", append([]interface{}{"step", step, "error", err}, kv...)...)
	return apierr.Internal(fmt.Errorf("%s: %w", step, err))
}
