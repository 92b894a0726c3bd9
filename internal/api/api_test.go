package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawl-dashboard/internal/aggregate"
	"crawl-dashboard/internal/metrics"
	"crawl-dashboard/internal/model"
	"crawl-dashboard/internal/source"
)

type fakeService struct {
	posts     []model.Post
	err       error
	panics    bool
	lastLimit int
	lastPlat  model.Platform
}

func (f *fakeService) slice(limit int) ([]model.Post, error) {
	f.lastLimit = limit
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	if limit <= 0 {
		return []model.Post{}, nil
	}
	if limit > len(f.posts) {
		limit = len(f.posts)
	}
	return f.posts[:limit], nil
}

func (f *fakeService) All(context.Context) (model.Overview, error) {
	if f.err != nil {
		return model.Overview{}, f.err
	}
	return model.Overview{Latest: f.posts, Hot: f.posts, Stats: model.Stats{TotalPosts: len(f.posts)}}, nil
}
func (f *fakeService) Latest(_ context.Context, n int) ([]model.Post, error) { return f.slice(n) }
func (f *fakeService) Hot(_ context.Context, n int) ([]model.Post, error)    { return f.slice(n) }
func (f *fakeService) ByPlatform(_ context.Context, p model.Platform, n int) ([]model.Post, error) {
	f.lastPlat = p
	return f.slice(n)
}
func (f *fakeService) Stats(context.Context) (model.Stats, error) {
	return model.Stats{TotalPosts: len(f.posts), TotalLikes: 15}, f.err
}
func (f *fakeService) Status() model.Status {
	return model.Status{DataSource: "mock", LastUpdate: "未更新"}
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
}

func setup(t *testing.T, svc *fakeService, o Options) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)
	h.now = func() time.Time { return time.Date(2024, 5, 1, 4, 0, 0, 0, time.UTC) }
	return NewRouter(h, o)
}

func do(t *testing.T, r http.Handler, method, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func samplePosts() []model.Post {
	return []model.Post{
		{ID: "b1", Platform: model.Douyin, PlatformLabel: "抖音", Likes: 10},
		{ID: "a1", Platform: model.Xiaohongshu, PlatformLabel: "小红书", Likes: 5},
	}
}

func TestHot_Limit(t *testing.T) {
	svc := &fakeService{posts: samplePosts()}
	r := setup(t, svc, Options{})

	w, env := do(t, r, http.MethodGet, "/api/data/hot?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	var posts []model.Post
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "b1", posts[0].ID)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLimitParsing(t *testing.T) {
	cases := []struct {
		query string
		want  int
	}{
		{"", 10},
		{"?limit=", 10},
		{"?limit=abc", 10},
		{"?limit=0", 10},
		{"?limit=5", 5},
		{"?limit=7abc", 7},
		{"?limit=-3", -3},
	}
	for _, tc := range cases {
		svc := &fakeService{posts: samplePosts()}
		r := setup(t, svc, Options{})
		w, _ := do(t, r, http.MethodGet, "/api/data/latest"+tc.query)
		assert.Equal(t, http.StatusOK, w.Code, tc.query)
		assert.Equal(t, tc.want, svc.lastLimit, tc.query)
	}
}

func TestNegativeLimitIsEmpty(t *testing.T) {
	r := setup(t, &fakeService{posts: samplePosts()}, Options{})
	_, env := do(t, r, http.MethodGet, "/api/data/hot?limit=-1")
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestPlatform(t *testing.T) {
	svc := &fakeService{posts: samplePosts()}
	r := setup(t, svc, Options{})

	w, env := do(t, r, http.MethodGet, "/api/data/platform/douyin")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, model.Douyin, svc.lastPlat)
	assert.Equal(t, 20, svc.lastLimit)

	do(t, r, http.MethodGet, "/api/data/platform/DouYin")
	assert.Equal(t, model.Platform("DouYin"), svc.lastPlat)
}

func TestPlatform_ExactMatchWithRunner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	run := aggregate.New(aggregate.Options{Source: staticSource{{"aweme_id": "b1", "liked_count": "10"}}})
	r := NewRouter(NewHandler(run), Options{})

	_, env := do(t, r, http.MethodGet, "/api/data/platform/douyin")
	var posts []model.Post
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "b1", posts[0].ID)

	_, env = do(t, r, http.MethodGet, "/api/data/platform/DOUYIN")
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	assert.Empty(t, posts)
}

type staticSource []model.Record

func (s staticSource) Kind() source.Kind                             { return source.KindJSON }
func (s staticSource) Location() string                              { return "memory" }
func (s staticSource) Fetch(context.Context) ([]model.Record, error) { return s, nil }

func TestAll_HasTimestamp(t *testing.T) {
	r := setup(t, &fakeService{posts: samplePosts()}, Options{})
	w, env := do(t, r, http.MethodGet, "/api/data/all")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-05-01T04:00:00.000Z", env.Timestamp)
	var ov model.Overview
	require.NoError(t, json.Unmarshal(env.Data, &ov))
	assert.Len(t, ov.Latest, 2)
	assert.Equal(t, 2, ov.Stats.TotalPosts)
}

func TestStatsAndStatus(t *testing.T) {
	r := setup(t, &fakeService{posts: samplePosts()}, Options{})

	_, env := do(t, r, http.MethodGet, "/api/data/stats")
	var st model.Stats
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.EqualValues(t, 15, st.TotalLikes)

	_, env = do(t, r, http.MethodGet, "/api/status")
	assert.JSONEq(t, `{"dataSource":"mock","dataPath":null,"cacheValid":false,"lastUpdate":"未更新","dataCount":0}`, string(env.Data))
}

func TestServiceError(t *testing.T) {
	r := setup(t, &fakeService{err: errors.New("source exploded")}, Options{})
	for _, p := range []string{"/api/data/all", "/api/data/latest", "/api/data/stats"} {
		w, env := do(t, r, http.MethodGet, p)
		assert.Equal(t, http.StatusInternalServerError, w.Code, p)
		assert.False(t, env.Success)
		assert.Equal(t, "source exploded", env.Message)
	}
}

func TestPanicIsRecovered(t *testing.T) {
	r := setup(t, &fakeService{panics: true}, Options{})
	w, env := do(t, r, http.MethodGet, "/api/data/hot")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, env.Success)

	w, _ = do(t, r, http.MethodGet, "/api/status")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNotFound(t *testing.T) {
	r := setup(t, &fakeService{}, Options{})
	w, env := do(t, r, http.MethodGet, "/api/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "API endpoint not found", env.Message)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	r := setup(t, &fakeService{}, Options{})
	w, _ := do(t, r, http.MethodOptions, "/api/data/hot")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "GET")
}

func TestMetricsRoute(t *testing.T) {
	m := metrics.New()
	r := setup(t, &fakeService{posts: samplePosts()}, Options{Metrics: m})
	do(t, r, http.MethodGet, "/api/data/hot")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `crawl_dashboard_http_requests_total{code="200",route="/api/data/hot"} 1`)
}

func TestDashboardPage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dashboard.html"), []byte("<h1>大屏</h1>"), 0o644))
	r := setup(t, &fakeService{}, Options{StaticDir: dir})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "大屏")
}
