package remediation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mind-engage/mindengage-remedial/internal/synth"
)

// SQLArchive keeps every synthesized lesson in remedial_lessons.
type SQLArchive struct {
	db *sqlx.DB
}

func NewSQLArchive(db *sqlx.DB) *SQLArchive { return &SQLArchive{db: db} }

func (a *SQLArchive) Save(ctx context.Context, userID, lessonID, model string, l synth.RemedialLesson) error {
	tags, err := json.Marshal(l.Tags)
	if err != nil {
		return err
	}
	body, err := json.Marshal(l)
	if err != nil {
		return err
	}
	_, err = a.db.ExecContext(ctx,
		a.db.Rebind(`INSERT INTO remedial_lessons (id,user_id,lesson_id,tags_json,body_json,model,created_at) VALUES (?,?,?,?,?,?,?)`),
		uuid.NewString(), userID, lessonID, string(tags), string(body), model, time.Now().Unix())
	return err
}

type ArchivedLesson struct {
	ID        string `db:"id"`
	UserID    string `db:"user_id"`
	LessonID  string `db:"lesson_id"`
	Model     string `db:"model"`
	BodyJSON  string `db:"body_json"`
	CreatedAt int64  `db:"created_at"`
}

// ListForUser returns a learner's archived remedial lessons, newest first.
func (a *SQLArchive) ListForUser(ctx context.Context, userID string) ([]ArchivedLesson, error) {
	var out []ArchivedLesson
	err := a.db.SelectContext(ctx, &out,
		a.db.Rebind(`SELECT id,user_id,lesson_id,model,body_json,created_at FROM remedial_lessons WHERE user_id=? ORDER BY created_at DESC, id`),
		userID)
	return out, err
}
