package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchamber/hive/internal/hive"
	"github.com/openchamber/hive/internal/httpapi"
)

// recorder wraps the API server and logs the directory parameter of
// every request it sees.
type recorder struct {
	next http.Handler

	mu   sync.Mutex
	dirs []string
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	r.dirs = append(r.dirs, req.URL.Query().Get("directory"))
	r.mu.Unlock()
	r.next.ServeHTTP(w, req)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirs = nil
}

func (r *recorder) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dirs...)
}

func newAPIServer(t *testing.T) (*httptest.Server, *recorder) {
	t.Helper()
	api := httpapi.New(hive.NewStore(), httpapi.WithDefaultAuthor("You"))
	rec := &recorder{next: api.Router()}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestClientRoundTrip(t *testing.T) {
	srv, _ := newAPIServer(t)
	ctx := context.Background()
	c := NewClient(srv.URL, t.TempDir())

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Exists)

	feature, err := c.CreateFeature(ctx, "User Auth", "PROJ-9")
	require.NoError(t, err)
	assert.Equal(t, "user-auth", feature.Name)

	require.NoError(t, c.SavePlan(ctx, "user-auth", "### 1. Setup\n\n### 2. Build\n**Depends on**: 1\n"))

	result, err := c.SyncTasks(ctx, "user-auth")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)

	tasks, err := c.Tasks(ctx, "user-auth")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "01-setup", tasks[0].Folder)

	status, err = c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Exists)
	assert.Equal(t, "user-auth", status.ActiveFeature)
}

func TestClientDecodesErrorBody(t *testing.T) {
	srv, _ := newAPIServer(t)
	c := NewClient(srv.URL, t.TempDir())

	err := c.SavePlan(context.Background(), "ghost", "content")
	require.Error(t, err)
	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "hive not found")
}

func TestClientRetriesServerErrors(t *testing.T) {
	var mu sync.Mutex
	failures := 1
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if failures > 0 {
			failures--
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"transient"}`))
			return
		}
		w.Write([]byte(`{"exists":true,"activeFeature":"auth"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/tmp/project")
	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Exists)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, calls, 2)
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"nope"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "/tmp/project")
	_, err := c.Feature(context.Background(), "ghost")
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "4xx responses must not be retried")
}

func TestCacheSelectFeatureClearsDetailState(t *testing.T) {
	srv, _ := newAPIServer(t)
	ctx := context.Background()
	cache := NewCache(NewClient(srv.URL, t.TempDir()))

	require.NoError(t, cache.CreateFeature(ctx, "auth", ""))
	cache.SelectFeature("auth")
	cache.FetchDetail(ctx, "auth")
	require.NotNil(t, cache.Detail())

	cache.SetActivePanel(PanelTasks)
	cache.SelectTask("01-x")
	cache.SelectFeature("billing")

	assert.Nil(t, cache.Detail())
	assert.Nil(t, cache.TaskDocs())
	assert.Empty(t, cache.ContextContent())
	assert.Empty(t, cache.SelectedTask())
	assert.Equal(t, PanelFeature, cache.ActivePanel())
}

func TestCacheMutationRefreshesDetailOnlyWhenSelected(t *testing.T) {
	srv, _ := newAPIServer(t)
	ctx := context.Background()
	cache := NewCache(NewClient(srv.URL, t.TempDir()))

	require.NoError(t, cache.CreateFeature(ctx, "alpha", ""))
	require.NoError(t, cache.CreateFeature(ctx, "beta", ""))

	cache.SelectFeature("alpha")
	cache.FetchDetail(ctx, "alpha")
	require.NotNil(t, cache.Detail())
	require.Nil(t, cache.Detail().Plan)

	// Mutating the unselected feature must not touch alpha's detail.
	require.NoError(t, cache.SavePlan(ctx, "beta", "beta plan"))
	require.NotNil(t, cache.Detail())
	assert.Nil(t, cache.Detail().Plan)

	// Mutating the selected feature re-fetches the bundle.
	require.NoError(t, cache.SavePlan(ctx, "alpha", "alpha plan"))
	require.NotNil(t, cache.Detail())
	require.NotNil(t, cache.Detail().Plan)
	assert.Equal(t, "alpha plan", cache.Detail().Plan.Content)
}

func TestCacheApprovePlanBlockedByOpenComments(t *testing.T) {
	srv, _ := newAPIServer(t)
	ctx := context.Background()
	cache := NewCache(NewClient(srv.URL, t.TempDir()))

	require.NoError(t, cache.CreateFeature(ctx, "auth", ""))
	require.NoError(t, cache.SavePlan(ctx, "auth", "### 1. Setup\n"))
	require.NoError(t, cache.AddComment(ctx, "auth", 1, "rethink this"))

	err := cache.ApprovePlan(ctx, "auth")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolved comments")

	comments, err := cache.client.Comments(ctx, "auth")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	require.NoError(t, cache.DeleteComment(ctx, "auth", comments[0].ID))

	require.NoError(t, cache.ApprovePlan(ctx, "auth"))
}

func TestCacheRefreshSkipsListsWhenHiveMissing(t *testing.T) {
	srv, rec := newAPIServer(t)
	cache := NewCache(NewClient(srv.URL, t.TempDir()))

	cache.Refresh(context.Background())
	assert.False(t, cache.HiveExists())

	// Only the status probe should have gone out.
	assert.Len(t, rec.seen(), 1)
}

func TestPollerSwitchStopsPreviousDirectory(t *testing.T) {
	srv, rec := newAPIServer(t)
	ctx := context.Background()

	dirA, dirB := t.TempDir(), t.TempDir()
	cacheA := NewCache(NewClient(srv.URL, dirA))
	cacheB := NewCache(NewClient(srv.URL, dirB))
	require.NoError(t, cacheA.CreateFeature(ctx, "alpha", ""))
	require.NoError(t, cacheB.CreateFeature(ctx, "beta", ""))

	poller := NewPoller(20 * time.Millisecond)
	poller.Start(cacheA)
	poller.Start(cacheB)
	defer poller.Stop()

	// Starting for B synchronously stops A's loop, so everything
	// recorded from here on must be for B.
	rec.reset()
	time.Sleep(100 * time.Millisecond)

	seen := rec.seen()
	require.NotEmpty(t, seen, "poller should have ticked")
	for _, dir := range seen {
		assert.Equal(t, dirB, dir)
	}
}

func TestPollerStop(t *testing.T) {
	srv, rec := newAPIServer(t)
	cache := NewCache(NewClient(srv.URL, t.TempDir()))

	poller := NewPoller(10 * time.Millisecond)
	poller.Start(cache)
	time.Sleep(35 * time.Millisecond)
	poller.Stop()

	rec.reset()
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.seen(), "no requests after Stop")
}
