// Package profile stores one opaque JSON document per learner.
package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound   = errors.New("profile not found")
	ErrNotJSONDoc = errors.New("profile must be a JSON object")
)

type Profile struct {
	UserID    string          `json:"userId"`
	Data      json.RawMessage `json:"profile"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

type row struct {
	UserID    string `db:"user_id"`
	Data      string `db:"profile_json"`
	UpdatedAt int64  `db:"updated_at"`
}

func (s *SQLStore) Get(ctx context.Context, userID string) (Profile, error) {
	var r row
	err := s.db.GetContext(ctx, &r,
		s.db.Rebind(`SELECT user_id, profile_json, updated_at FROM user_profiles WHERE user_id=?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return Profile{
		UserID:    r.UserID,
		Data:      json.RawMessage(r.Data),
		UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC(),
	}, nil
}

// Put replaces the profile document. Only JSON objects are accepted.
func (s *SQLStore) Put(ctx context.Context, userID string, doc json.RawMessage) (Profile, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(doc, &obj); err != nil || obj == nil {
		return Profile{}, ErrNotJSONDoc
	}
	compact, err := json.Marshal(obj)
	if err != nil {
		return Profile{}, err
	}
	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO user_profiles (user_id, profile_json, updated_at) VALUES (?,?,?)
		ON CONFLICT(user_id) DO UPDATE SET profile_json=excluded.profile_json, updated_at=excluded.updated_at`),
		userID, string(compact), now.UnixMilli())
	if err != nil {
		return Profile{}, fmt.Errorf("put profile: %w", err)
	}
	return Profile{UserID: userID, Data: compact, UpdatedAt: time.UnixMilli(now.UnixMilli()).UTC()}, nil
}
