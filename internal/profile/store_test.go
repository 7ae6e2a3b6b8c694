package profile

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-remedial/internal/db"
)

func TestSQLStore_PutGet(t *testing.T) {
	s := NewSQLStore(db.OpenTestSQLite(t))
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }
	ctx := context.Background()

	_, err := s.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Put(ctx, "u1", json.RawMessage(`{"grade": 7, "goals": ["fractions"]}`))
	require.NoError(t, err)

	p, err := s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.JSONEq(t, `{"grade":7,"goals":["fractions"]}`, string(p.Data))
	assert.True(t, at.Equal(p.UpdatedAt))

	_, err = s.Put(ctx, "u1", json.RawMessage(`{"grade": 8}`))
	require.NoError(t, err)
	p, err = s.Get(ctx, "u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"grade":8}`, string(p.Data))
}

func TestSQLStore_PutRejectsNonObjects(t *testing.T) {
	s := NewSQLStore(db.OpenTestSQLite(t))
	for _, doc := range []string{`[1,2]`, `"x"`, `null`, `{`} {
		_, err := s.Put(context.Background(), "u1", json.RawMessage(doc))
		assert.ErrorIs(t, err, ErrNotJSONDoc, doc)
	}
}
