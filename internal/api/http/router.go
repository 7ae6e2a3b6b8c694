package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/mindengage-remedial/internal/auth/middleware"
	"github.com/mind-engage/mindengage-remedial/internal/eventlog"
	"github.com/mind-engage/mindengage-remedial/internal/lesson"
	"github.com/mind-engage/mindengage-remedial/internal/logger"
	"github.com/mind-engage/mindengage-remedial/internal/profile"
	"github.com/mind-engage/mindengage-remedial/internal/progress"
	"github.com/mind-engage/mindengage-remedial/internal/rbac"
	"github.com/mind-engage/mindengage-remedial/internal/remediation"
	"github.com/mind-engage/mindengage-remedial/internal/submission"
)

type Submitter interface {
	Submit(ctx context.Context, userID, lessonID string, in submission.Input) (submission.Result, error)
}

type LessonLister interface {
	ListByTopic(ctx context.Context, topicID string) ([]lesson.Lesson, error)
}

type ProgressReader interface {
	Get(ctx context.Context, userID, lessonID string) (progress.Record, error)
}

type ProfileStore interface {
	Get(ctx context.Context, userID string) (profile.Profile, error)
	Put(ctx context.Context, userID string, doc json.RawMessage) (profile.Profile, error)
}

type RemedialLister interface {
	ListForUser(ctx context.Context, userID string) ([]remediation.ArchivedLesson, error)
}

type LessonGenerator interface {
	Generate(ctx context.Context, topics []string) map[string][]lesson.Lesson
}

type EventLister interface {
	List(ctx context.Context, typ string, afterSeq int64, limit int) ([]eventlog.Event, error)
}

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Auth      *auth.AuthService
	Login     *auth.LoginOptions // nil disables POST /auth/login
	Origins   []string
	Submitter Submitter
	Lessons   LessonLister
	Progress  ProgressReader
	Profiles  ProfileStore
	Remedials RemedialLister
	Generator LessonGenerator
	Events    EventLister
	DB        Pinger
	Log       *logger.Logger

	// RequestTimeout bounds ordinary routes; generation gets GenerateTimeout.
	RequestTimeout  time.Duration
	GenerateTimeout time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if d.GenerateTimeout <= 0 {
		d.GenerateTimeout = 5 * time.Minute
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(d.Log.With("component", "http")), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", HealthHandler())
	r.Get("/readyz", ReadyHandler(d.DB))
	if d.Login != nil {
		r.With(middleware.Timeout(d.RequestTimeout)).Post("/auth/login", auth.LoginHandler(d.Auth, *d.Login, d.Log))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))
		pr.Get("/auth/me", auth.MeHandler())

		pr.Group(func(tr chi.Router) {
			tr.Use(middleware.Timeout(d.RequestTimeout))

			tr.With(rbac.Require(rbac.PermAssessmentSubmit)).
				Post("/assessments/{lessonId}/submit", SubmitAssessmentHandler(d.Submitter))
			tr.With(rbac.Require(rbac.PermLessonView)).
				Get("/lessons/{topicId}", ListLessonsHandler(d.Lessons, d.Log))
			tr.With(rbac.Require(rbac.PermProgressViewOwn)).
				Get("/progress/{lessonId}", GetProgressHandler(d.Progress, d.Log))
			tr.With(rbac.Require(rbac.PermProgressViewOwn)).
				Get("/remedial-lessons", ListRemedialLessonsHandler(d.Remedials, d.Log))

			tr.With(rbac.Require(rbac.PermEventsView)).
				Get("/events", ListEventsHandler(d.Events, d.Log))

			tr.Route("/user-profile/{userId}", func(ur chi.Router) {
				ur.With(rbac.RequireOwnerOr(rbac.PermProfileViewAll, isProfileOwner)).Get("/", GetProfileHandler(d.Profiles, d.Log))
				ur.With(rbac.RequireOwnerOr(rbac.PermProfileEditAll, isProfileOwner)).Put("/", PutProfileHandler(d.Profiles, d.Log))
			})
		})

		pr.With(middleware.Timeout(d.GenerateTimeout), rbac.Require(rbac.PermLessonGenerate)).
			Post("/generate-lessons", GenerateLessonsHandler(d.Generator))
	})
	return r
}

func isProfileOwner(r *http.Request) bool {
	sub := auth.SubjectFromContext(r.Context())
	return sub != "" && sub == chi.URLParam(r, "userId")
}
