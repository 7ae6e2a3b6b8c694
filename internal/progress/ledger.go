package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mind-engage/mindengage-remedial/internal/db"
	"github.com/mind-engage/mindengage-remedial/internal/grading"
)

type Status string

const (
	StatusCompleted      Status = "completed"
	StatusRequiresReview Status = "requires_review"
)

var ErrNotFound = errors.New("progress not found")

// Attempt is immutable once recorded.
type Attempt struct {
	Timestamp time.Time        `json:"timestamp"`
	Score     int              `json:"score"`
	Answers   []grading.Answer `json:"answers"`
}

// Record is the per (user, lesson) mastery state. Status always reflects the
// last attempt; Attempts only ever grows.
type Record struct {
	UserID    string    `json:"userId"`
	LessonID  string    `json:"lessonId"`
	Score     int       `json:"score"`
	Status    Status    `json:"status"`
	Attempts  []Attempt `json:"quizAttempts"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Ledger interface {
	RecordAttempt(ctx context.Context, userID, lessonID string, score int, answers []grading.Answer, passThreshold int) (Record, error)
	Get(ctx context.Context, userID, lessonID string) (Record, error)
}

type SQLLedger struct {
	db     *sqlx.DB
	driver db.Driver
	now    func() time.Time
}

func NewSQLLedger(h *sqlx.DB) *SQLLedger {
	return &SQLLedger{db: h, driver: db.DriverOf(h), now: time.Now}
}

// WithClock overrides the attempt timestamp source.
func (l *SQLLedger) WithClock(now func() time.Time) *SQLLedger {
	l.now = now
	return l
}

type recordRow struct {
	UserID       string `db:"user_id"`
	LessonID     string `db:"lesson_id"`
	Score        int    `db:"score"`
	Status       string `db:"status"`
	AttemptsJSON string `db:"attempts_json"`
	UpdatedAt    int64  `db:"updated_at"`
}

func (r recordRow) decode() (Record, error) {
	rec := Record{
		UserID:    r.UserID,
		LessonID:  r.LessonID,
		Score:     r.Score,
		Status:    Status(r.Status),
		UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(r.AttemptsJSON), &rec.Attempts); err != nil {
		return Record{}, fmt.Errorf("decode attempts: %w", err)
	}
	return rec, nil
}

// The history append happens inside the upsert so concurrent writers on one
// key cannot lose each other's attempts.
const upsertSQLite = `INSERT INTO user_progress (user_id,lesson_id,score,status,attempts_json,updated_at)
	VALUES (?,?,?,?,json_array(json(?)),?)
	ON CONFLICT (user_id,lesson_id) DO UPDATE SET
		score=excluded.score,
		status=excluded.status,
		attempts_json=json_insert(user_progress.attempts_json,'$[#]',json(?)),
		updated_at=excluded.updated_at
	RETURNING user_id,lesson_id,score,status,attempts_json,updated_at`

const upsertPostgres = `INSERT INTO user_progress (user_id,lesson_id,score,status,attempts_json,updated_at)
	VALUES ($1,$2,$3,$4,jsonb_build_array($5::jsonb),$6)
	ON CONFLICT (user_id,lesson_id) DO UPDATE SET
		score=EXCLUDED.score,
		status=EXCLUDED.status,
		attempts_json=user_progress.attempts_json || EXCLUDED.attempts_json,
		updated_at=EXCLUDED.updated_at
	RETURNING user_id,lesson_id,score,status,attempts_json::text AS attempts_json,updated_at`

func StatusFor(score, passThreshold int) Status {
	if grading.Passed(score, passThreshold) {
		return StatusCompleted
	}
	return StatusRequiresReview
}

func (l *SQLLedger) RecordAttempt(ctx context.Context, userID, lessonID string, score int, answers []grading.Answer, passThreshold int) (Record, error) {
	if answers == nil {
		answers = []grading.Answer{}
	}
	now := l.now().UTC()
	attempt, err := json.Marshal(Attempt{Timestamp: now, Score: score, Answers: answers})
	if err != nil {
		return Record{}, err
	}
	status := StatusFor(score, passThreshold)

	var (
		r  recordRow
		qe error
	)
	switch l.driver {
	case db.DriverPostgres:
		qe = l.db.GetContext(ctx, &r, upsertPostgres,
			userID, lessonID, score, string(status), string(attempt), now.UnixMilli())
	default:
		qe = l.db.GetContext(ctx, &r, upsertSQLite,
			userID, lessonID, score, string(status), string(attempt), now.UnixMilli(), string(attempt))
	}
	if qe != nil {
		return Record{}, fmt.Errorf("record attempt %s/%s: %w", userID, lessonID, qe)
	}
	return r.decode()
}

func (l *SQLLedger) Get(ctx context.Context, userID, lessonID string) (Record, error) {
	cols := `user_id,lesson_id,score,status,attempts_json,updated_at`
	if l.driver == db.DriverPostgres {
		cols = `user_id,lesson_id,score,status,attempts_json::text AS attempts_json,updated_at`
	}
	var r recordRow
	err := l.db.GetContext(ctx, &r,
		l.db.Rebind(`SELECT `+cols+` FROM user_progress WHERE user_id=? AND lesson_id=?`), userID, lessonID)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	return r.decode()
}
