package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecker_DefaultPolicy(t *testing.T) {
	c := NewChecker(nil)

	assert.True(t, c.Has("student", PermAssessmentSubmit))
	assert.False(t, c.Has("student", PermLessonViewKeys))
	assert.False(t, c.Has("student", PermLessonGenerate))
	assert.False(t, c.Has("student", PermProfileViewAll))

	assert.True(t, c.Has("teacher", PermLessonViewKeys), "lesson:* wildcard")
	assert.True(t, c.Has("teacher", PermProfileViewAll), "profile:view-* wildcard")
	assert.False(t, c.Has("teacher", PermProfileEditAll))

	assert.True(t, c.Has("admin", "anything:at-all"))
	assert.False(t, c.Has("ghost", PermLessonView))
	assert.True(t, c.Any("student", PermLessonGenerate, PermLessonView))
	assert.False(t, c.All("student", PermLessonGenerate, PermLessonView))
}

func TestRequire(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := Require(PermLessonGenerate)(ok)

	for role, want := range map[string]int{
		"":        http.StatusForbidden,
		"student": http.StatusForbidden,
		"teacher": http.StatusNoContent,
		"admin":   http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithRole(req.Context(), role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "role %q", role)
	}
}

func TestRequireOwnerOr(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	owner := false
	h := RequireOwnerOr(PermProfileViewAll, func(*http.Request) bool { return owner })(ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRole(req.Context(), "student"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"forbidden"`)

	owner = true
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
