package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchamber/hive/internal/hive"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	return New(hive.NewStore(), WithDefaultAuthor("You")), t.TempDir()
}

// do performs a request against the server and decodes the JSON body.
func do(t *testing.T, s *Server, method, path, dir, body string) (int, map[string]any) {
	t.Helper()

	target := path
	if dir != "" {
		target += "?directory=" + url.QueryEscape(dir)
	}
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	decoded := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w.Code, decoded
}

func TestMissingDirectoryParameter(t *testing.T) {
	s, _ := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/hive/status"},
		{http.MethodGet, "/api/hive/features"},
		{http.MethodGet, "/api/hive/summaries"},
		{http.MethodPost, "/api/hive/features"},
		{http.MethodGet, "/api/hive/features/x/plan"},
	} {
		code, body := do(t, s, route.method, route.path, "", "")
		assert.Equal(t, http.StatusBadRequest, code, "%s %s", route.method, route.path)
		assert.Contains(t, body["error"], "directory")
	}
}

func TestStatus_NoHive(t *testing.T) {
	s, dir := newTestServer(t)
	code, body := do(t, s, http.MethodGet, "/api/hive/status", dir, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["exists"])
}

func TestCreateFeature_LazilyProvisionsHive(t *testing.T) {
	s, dir := newTestServer(t)

	code, body := do(t, s, http.MethodPost, "/api/hive/features", dir, `{"name":"User Auth","ticket":"PROJ-1"}`)
	require.Equal(t, http.StatusCreated, code)
	feature := body["feature"].(map[string]any)
	assert.Equal(t, "user-auth", feature["name"])
	assert.Equal(t, "planning", feature["status"])

	code, body = do(t, s, http.MethodGet, "/api/hive/status", dir, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["exists"])
	assert.Equal(t, "user-auth", body["activeFeature"])
}

func TestCreateFeature_MissingName(t *testing.T) {
	s, dir := newTestServer(t)
	code, _ := do(t, s, http.MethodPost, "/api/hive/features", dir, `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCreateFeature_Duplicate(t *testing.T) {
	s, dir := newTestServer(t)
	code, _ := do(t, s, http.MethodPost, "/api/hive/features", dir, `{"name":"auth"}`)
	require.Equal(t, http.StatusCreated, code)

	code, body := do(t, s, http.MethodPost, "/api/hive/features", dir, `{"name":"auth"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, body["error"], "already exists")
}

func TestWritesAgainstMissingHiveReturn404(t *testing.T) {
	s, dir := newTestServer(t)

	for _, route := range []struct{ method, path, body string }{
		{http.MethodPatch, "/api/hive/features/x", `{"status":"completed"}`},
		{http.MethodPut, "/api/hive/features/x/plan", `{"content":"p"}`},
		{http.MethodPost, "/api/hive/features/x/plan/approve", ""},
		{http.MethodPost, "/api/hive/features/x/tasks", `{"name":"t"}`},
		{http.MethodPost, "/api/hive/features/x/tasks/sync", ""},
		{http.MethodPost, "/api/hive/features/x/sessions", `{"sessionId":"s"}`},
	} {
		code, _ := do(t, s, route.method, route.path, dir, route.body)
		assert.Equal(t, http.StatusNotFound, code, "%s %s", route.method, route.path)
	}
}

func TestReadsAgainstMissingHiveReturnEmpty(t *testing.T) {
	s, dir := newTestServer(t)

	code, body := do(t, s, http.MethodGet, "/api/hive/features", dir, "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["features"])

	code, body = do(t, s, http.MethodGet, "/api/hive/summaries", dir, "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["summaries"])
}

func TestPlanLifecycle(t *testing.T) {
	s, dir := newTestServer(t)
	code, _ := do(t, s, http.MethodPost, "/api/hive/features", dir, `{"name":"auth"}`)
	require.Equal(t, http.StatusCreated, code)

	// Approving before a plan exists is a domain error, not a 404.
	code, body := do(t, s, http.MethodPost, "/api/hive/features/auth/plan/approve", dir, "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Contains(t, body["error"], "no plan")

	// No plan yet: endpoint succeeds with a null plan.
	code, body = do(t, s, http.MethodGet, "/api/hive/features/auth/plan", dir, "")
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["plan"])

	code, _ = do(t, s, http.MethodPut, "/api/hive/features/auth/plan", dir, `{"content":"### 1. Setup\n"}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, s, http.MethodPost, "/api/hive/features/auth/plan/approve", dir, "")
	require.Equal(t, http.StatusOK, code)

	code, body = do(t, s, http.MethodGet, "/api/hive/features/auth/plan", dir, "")
	require.Equal(t, http.StatusOK, code)
	plan := body["plan"].(map[string]any)
	assert.Equal(t, true, plan["isApproved"])
}

func TestTaskSyncAndUpdate(t *testing.T) {
	s, dir := newTestServer(t)
	code, _ := do(t, s, http.MethodPost, "/api/hive/features", dir, `{"name":"auth"}`)
	require.Equal(t, http.StatusCreated, code)
	code, _ = do(t, s, http.MethodPut, "/api/hive/features/auth/plan", dir, `{"content":"### 1. Setup\n\n### 2. Build\n**Depends on**: 1\n"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := do(t, s, http.MethodPost, "/api/hive/features/auth/tasks/sync", dir, "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["created"])
	assert.EqualValues(t, 2, body["total"])

	code, body = do(t, s, http.MethodGet, "/api/hive/features/auth/tasks", dir, "")
	require.Equal(t, http.StatusOK, code)
	tasks := body["tasks"].([]any)
	require.Len(t, tasks, 2)

	code, body = do(t, s, http.MethodPatch, "/api/hive/features/auth/tasks/01-setup", dir, `{"status":"in_progress"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "in_progress", body["status"])
	assert.NotEmpty(t, body["startedAt"])

	code, body = do(t, s, http.MethodGet, "/api/hive/features/auth/tasks/02-build", dir, "")
	require.Equal(t, http.StatusOK, code)
	task := body["task"].(map[string]any)
	deps := task["dependsOn"].([]any)
	require.Len(t, deps, 1)
	assert.Equal(t, "01-setup", deps[0])
}

func TestCommentRoundTrip(t *testing.T) {
	s, dir := newTestServer(t)
	code, _ := do(t, s, http.MethodPost, "/api/hive/features", dir, `{"name":"auth"}`)
	require.Equal(t, http.StatusCreated, code)

	code, body := do(t, s, http.MethodPost, "/api/hive/features/auth/comments", dir, `{"line":2,"body":"why here?"}`)
	require.Equal(t, http.StatusCreated, code)
	comment := body["comment"].(map[string]any)
	assert.Equal(t, "You", comment["author"])

	code, body = do(t, s, http.MethodGet, "/api/hive/features/auth/comments", dir, "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["threads"], 1)

	id := comment["id"].(string)
	code, _ = do(t, s, http.MethodDelete, "/api/hive/features/auth/comments/"+id, dir, "")
	require.Equal(t, http.StatusOK, code)

	code, body = do(t, s, http.MethodGet, "/api/hive/features/auth/comments", dir, "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["threads"])
}

func TestContextFileEndpoints(t *testing.T) {
	s, dir := newTestServer(t)
	code, _ := do(t, s, http.MethodPost, "/api/hive/features", dir, `{"name":"auth"}`)
	require.Equal(t, http.StatusCreated, code)

	code, _ = do(t, s, http.MethodGet, "/api/hive/features/auth/context/notes.md", dir, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, s, http.MethodPut, "/api/hive/features/auth/context/notes.md", dir, `{"content":"remember"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := do(t, s, http.MethodGet, "/api/hive/features/auth/context/notes.md", dir, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "remember", body["content"])

	code, body = do(t, s, http.MethodGet, "/api/hive/features/auth/context", dir, "")
	require.Equal(t, http.StatusOK, code)
	files := body["files"].([]any)
	require.Len(t, files, 1)

	code, _ = do(t, s, http.MethodDelete, "/api/hive/features/auth/context/notes.md", dir, "")
	require.Equal(t, http.StatusOK, code)
}

func TestSessionEndpoints(t *testing.T) {
	s, dir := newTestServer(t)
	code, _ := do(t, s, http.MethodPost, "/api/hive/features", dir, `{"name":"auth"}`)
	require.Equal(t, http.StatusCreated, code)

	code, _ = do(t, s, http.MethodPost, "/api/hive/features/auth/sessions", dir, `{"sessionId":"sess-1"}`)
	require.Equal(t, http.StatusOK, code)
	code, _ = do(t, s, http.MethodPost, "/api/hive/features/auth/sessions", dir, `{"sessionId":"sess-1","taskFolder":"01-x"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := do(t, s, http.MethodGet, "/api/hive/features/auth/sessions", dir, "")
	require.Equal(t, http.StatusOK, code)
	sessions := body["sessions"].([]any)
	require.Len(t, sessions, 1, "re-linking must not duplicate")
	assert.Equal(t, "01-x", sessions[0].(map[string]any)["taskFolder"])
}

func TestSearchWithoutIndex(t *testing.T) {
	s, dir := newTestServer(t)
	code, body := do(t, s, http.MethodGet, "/api/hive/search", dir, "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body["error"], "unavailable")
}

func TestUnknownFeatureReturns404(t *testing.T) {
	s, dir := newTestServer(t)
	code, _ := do(t, s, http.MethodPost, "/api/hive/features", dir, `{"name":"auth"}`)
	require.Equal(t, http.StatusCreated, code)

	code, _ = do(t, s, http.MethodGet, "/api/hive/features/ghost", dir, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, s, http.MethodPatch, "/api/hive/features/ghost", dir, `{"status":"completed"}`)
	assert.Equal(t, http.StatusNotFound, code)
}
