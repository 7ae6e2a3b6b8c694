package lesson

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

type lessonRow struct {
	ID               string `db:"id"`
	TopicID          string `db:"topic_id"`
	Ord              int    `db:"ord"`
	Title            string `db:"title"`
	XP               int    `db:"xp"`
	EstimatedMinutes int    `db:"estimated_minutes"`
	Difficulty       string `db:"difficulty"`
	TagsJSON         string `db:"tags_json"`
	ContentJSON      string `db:"content_json"`
	AssessmentJSON   string `db:"assessment_json"`
	CreatedAt        int64  `db:"created_at"`
}

const lessonCols = `id,topic_id,ord,title,xp,estimated_minutes,difficulty,tags_json,content_json,assessment_json,created_at`

func (r lessonRow) decode() (Lesson, error) {
	l := Lesson{
		ID:               r.ID,
		TopicID:          r.TopicID,
		Order:            r.Ord,
		Title:            r.Title,
		XP:               r.XP,
		EstimatedMinutes: r.EstimatedMinutes,
		Difficulty:       r.Difficulty,
		CreatedAt:        r.CreatedAt,
	}
	if err := json.Unmarshal([]byte(r.TagsJSON), &l.Tags); err != nil {
		return Lesson{}, fmt.Errorf("lesson %s tags: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.ContentJSON), &l.Content); err != nil {
		return Lesson{}, fmt.Errorf("lesson %s content: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.AssessmentJSON), &l.Assessment); err != nil {
		return Lesson{}, fmt.Errorf("lesson %s assessment: %w", r.ID, err)
	}
	return l, nil
}

func encodeLesson(l Lesson) (lessonRow, error) {
	if l.Tags == nil {
		l.Tags = []string{}
	}
	if l.Content == nil {
		l.Content = []ContentBlock{}
	}
	tj, err := json.Marshal(l.Tags)
	if err != nil {
		return lessonRow{}, err
	}
	cj, err := json.Marshal(l.Content)
	if err != nil {
		return lessonRow{}, err
	}
	aj, err := json.Marshal(l.Assessment)
	if err != nil {
		return lessonRow{}, err
	}
	return lessonRow{
		ID: l.ID, TopicID: l.TopicID, Ord: l.Order, Title: l.Title, XP: l.XP,
		EstimatedMinutes: l.EstimatedMinutes, Difficulty: l.Difficulty,
		TagsJSON: string(tj), ContentJSON: string(cj), AssessmentJSON: string(aj),
		CreatedAt: l.CreatedAt,
	}, nil
}

func (s *SQLStore) GetLesson(ctx context.Context, id string) (Lesson, error) {
	var r lessonRow
	err := s.db.GetContext(ctx, &r, s.db.Rebind(`SELECT `+lessonCols+` FROM lessons WHERE id=?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Lesson{}, ErrNotFound
	}
	if err != nil {
		return Lesson{}, err
	}
	return r.decode()
}

func (s *SQLStore) ListByTopic(ctx context.Context, topicID string) ([]Lesson, error) {
	var rows []lessonRow
	q := s.db.Rebind(`SELECT ` + lessonCols + ` FROM lessons WHERE topic_id=? ORDER BY ord, id`)
	if err := s.db.SelectContext(ctx, &rows, q, topicID); err != nil {
		return nil, err
	}
	out := make([]Lesson, 0, len(rows))
	for _, r := range rows {
		l, err := r.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (s *SQLStore) IDsAtOrder(ctx context.Context, topicID string, order int) ([]string, error) {
	var ids []string
	q := s.db.Rebind(`SELECT id FROM lessons WHERE topic_id=? AND ord=? ORDER BY id`)
	if err := s.db.SelectContext(ctx, &ids, q, topicID, order); err != nil {
		return nil, err
	}
	return ids, nil
}

const upsertLesson = `INSERT INTO lessons (` + lessonCols + `)
	VALUES (:id,:topic_id,:ord,:title,:xp,:estimated_minutes,:difficulty,:tags_json,:content_json,:assessment_json,:created_at)
	ON CONFLICT (id) DO UPDATE SET topic_id=excluded.topic_id, ord=excluded.ord, title=excluded.title,
		xp=excluded.xp, estimated_minutes=excluded.estimated_minutes, difficulty=excluded.difficulty,
		tags_json=excluded.tags_json, content_json=excluded.content_json, assessment_json=excluded.assessment_json`

func (s *SQLStore) PutLesson(ctx context.Context, l Lesson) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt == 0 {
		l.CreatedAt = s.now().Unix()
	}
	r, err := encodeLesson(l)
	if err != nil {
		return err
	}
	_, err = s.db.NamedExecContext(ctx, upsertLesson, r)
	return err
}

func (s *SQLStore) UpsertTopic(ctx context.Context, name string) (Topic, error) {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO topics (id,name,created_at) VALUES (?,?,?) ON CONFLICT (name) DO NOTHING`),
		uuid.NewString(), name, s.now().Unix())
	if err != nil {
		return Topic{}, fmt.Errorf("upsert topic %q: %w", name, err)
	}
	var t Topic
	row := s.db.QueryRowxContext(ctx, s.db.Rebind(`SELECT id,name,created_at FROM topics WHERE name=?`), name)
	if err := row.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
		return Topic{}, fmt.Errorf("load topic %q: %w", name, err)
	}
	return t, nil
}

func (s *SQLStore) AppendLessons(ctx context.Context, topicID string, ls []Lesson) ([]Lesson, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var maxOrd int
	if err := tx.GetContext(ctx, &maxOrd, tx.Rebind(`SELECT COALESCE(MAX(ord), 0) FROM lessons WHERE topic_id=?`), topicID); err != nil {
		return nil, fmt.Errorf("max order: %w", err)
	}

	now := s.now().Unix()
	out := make([]Lesson, 0, len(ls))
	for i, l := range ls {
		l.ID = uuid.NewString()
		l.TopicID = topicID
		l.Order = maxOrd + 1 + i
		l.CreatedAt = now
		r, err := encodeLesson(l)
		if err != nil {
			return nil, err
		}
		if _, err := tx.NamedExecContext(ctx, upsertLesson, r); err != nil {
			return nil, fmt.Errorf("insert lesson %d: %w", i, err)
		}
		out = append(out, l)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) PutSnippet(ctx context.Context, sn ContentSnippet) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		tx.Rebind(`INSERT INTO content_snippets (id,content,created_at) VALUES (?,?,?)
			ON CONFLICT (id) DO UPDATE SET content=excluded.content`),
		sn.ID, sn.Content, s.now().Unix()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM content_snippet_tags WHERE snippet_id=?`), sn.ID); err != nil {
		return err
	}
	for _, tag := range sn.Tags {
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO content_snippet_tags (snippet_id,tag) VALUES (?,?) ON CONFLICT DO NOTHING`),
			sn.ID, tag); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SnippetsByTags returns every snippet carrying at least one of tags, ordered by id.
func (s *SQLStore) SnippetsByTags(ctx context.Context, tags []string) ([]ContentSnippet, error) {
	if len(tags) == 0 {
		return []ContentSnippet{}, nil
	}
	q, args, err := sqlx.In(`SELECT DISTINCT s.id, s.content FROM content_snippets s
		JOIN content_snippet_tags t ON t.snippet_id = s.id
		WHERE t.tag IN (?) ORDER BY s.id`, tags)
	if err != nil {
		return nil, err
	}
	var out []ContentSnippet
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return []ContentSnippet{}, nil
	}

	ids := make([]string, len(out))
	idx := make(map[string]int, len(out))
	for i, sn := range out {
		ids[i] = sn.ID
		idx[sn.ID] = i
	}
	q, args, err = sqlx.In(`SELECT snippet_id, tag FROM content_snippet_tags WHERE snippet_id IN (?) ORDER BY snippet_id, tag`, ids)
	if err != nil {
		return nil, err
	}
	var pairs []struct {
		SnippetID string `db:"snippet_id"`
		Tag       string `db:"tag"`
	}
	if err := s.db.SelectContext(ctx, &pairs, s.db.Rebind(q), args...); err != nil {
		return nil, err
	}
	for _, p := range pairs {
		i := idx[p.SnippetID]
		out[i].Tags = append(out[i].Tags, p.Tag)
	}
	return out, nil
}
