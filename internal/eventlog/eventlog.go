package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	TypeLLMRequest       = "llm.request"
	TypeLessonsGenerated = "lessons.generated"
)

type Event struct {
	Seq       int64  `db:"seq"`
	SiteID    string `db:"site_id"`
	Type      string `db:"typ"`
	Key       string `db:"key"`
	DataJSON  string `db:"data"`
	CreatedAt int64  `db:"created_at"`
}

// Repo is the append-only audit trail.
type Repo struct {
	db     *sqlx.DB
	siteID string
}

func NewRepo(db *sqlx.DB, siteID string) *Repo {
	if siteID == "" {
		siteID = "local"
	}
	return &Repo{db: db, siteID: siteID}
}

func (r *Repo) Append(ctx context.Context, typ, key string, data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO event_log (site_id, typ, key, data, created_at) VALUES (?,?,?,?,?)`),
		r.siteID, typ, key, string(buf), time.Now().Unix())
	return err
}

// List returns events of typ after seq, oldest first.
func (r *Repo) List(ctx context.Context, typ string, afterSeq int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []Event
	err := r.db.SelectContext(ctx, &out,
		r.db.Rebind(`SELECT seq, site_id, typ, key, data, created_at FROM event_log
			WHERE typ=? AND seq>? ORDER BY seq LIMIT ?`),
		typ, afterSeq, limit)
	return out, err
}
