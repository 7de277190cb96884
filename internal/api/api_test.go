package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/pipeline"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/pipeline/reorder"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReorderService struct {
	summary         domain.RecomputeSummary
	err             error
	lastFilter      domain.ResultFilter
	lastTrigger     pipeline.Trigger
	run             *pipeline.Run
	recs            []domain.RecommendationView
	recomputeCtxErr error
}

func (f *fakeReorderService) Recompute(ctx context.Context, trigger pipeline.Trigger) (domain.RecomputeSummary, error) {
	f.lastTrigger = trigger
	f.recomputeCtxErr = ctx.Err()
	return f.summary, f.err
}

func (f *fakeReorderService) FetchAnalytics(ctx context.Context, filter domain.ResultFilter) ([]domain.AnalyticsView, error) {
	f.lastFilter = filter
	return []domain.AnalyticsView{}, f.err
}

func (f *fakeReorderService) FetchRecommendations(ctx context.Context, filter domain.ResultFilter) ([]domain.RecommendationView, error) {
	f.lastFilter = filter
	return f.recs, f.err
}

func (f *fakeReorderService) GetResultSummary(ctx context.Context) (domain.ResultSummary, error) {
	return domain.ResultSummary{}, f.err
}

func (f *fakeReorderService) LatestRun(ctx context.Context) (*pipeline.Run, error) {
	return f.run, f.err
}

func (f *fakeReorderService) Export(ctx context.Context, kind service.ResultKind, filter domain.ResultFilter) ([]byte, error) {
	return []byte("PK"), f.err
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, svc *fakeReorderService, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(&Services{ReorderService: svc}, []string{"*"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestRecomputeEndpoint(t *testing.T) {
	svc := &fakeReorderService{}
	svc.summary.Health.Add(domain.HealthDead)
	svc.summary.Reorder.Add(domain.PriorityUrgent)

	w := serve(t, svc, http.MethodPost, "/api/v1/inventory/recompute")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pipeline.TriggerManual, svc.lastTrigger)

	var body domain.RecomputeSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Health.Dead)
	assert.Equal(t, 1, body.Reorder.Urgent)
}

func TestRecomputeEndpointIgnoresClientDisconnect(t *testing.T) {
	svc := &fakeReorderService{}
	router := NewRouter(&Services{ReorderService: svc}, []string{"*"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/recompute", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, svc.recomputeCtxErr)
}

func TestRecomputeEndpointCatalogFailure(t *testing.T) {
	svc := &fakeReorderService{err: fmt.Errorf("%w: db down", reorder.ErrCatalogUnavailable)}

	w := serve(t, svc, http.MethodPost, "/api/v1/inventory/recompute")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecommendationsEndpoint(t *testing.T) {
	svc := &fakeReorderService{recs: []domain.RecommendationView{{
		ReorderRecommendation: domain.ReorderRecommendation{
			ItemID:           3,
			DaysUntilReorder: domain.Unbounded(),
			Priority:         domain.PrioritySafe,
			CalculatedAt:     time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		},
		ItemName: "Stapler",
	}}}

	w := serve(t, svc, http.MethodGet, "/api/v1/inventory/recommendations?priority=SAFE&limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.PrioritySafe, svc.lastFilter.Priority)
	assert.Equal(t, 5, svc.lastFilter.Limit)

	var body struct {
		Items []map[string]interface{} `json:"items"`
		Total int                      `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, float64(domain.UnboundedSentinel), body.Items[0]["days_until_reorder"])
	assert.Nil(t, body.Items[0]["estimated_stockout_date"])
}

func TestAnalyticsEndpointEmptyIsList(t *testing.T) {
	w := serve(t, &fakeReorderService{}, http.MethodGet, "/api/v1/inventory/analytics?status=dead")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"total":0}`, w.Body.String())
}

func TestListEndpointsRejectBadFilters(t *testing.T) {
	for _, target := range []string{
		"/api/v1/inventory/analytics?status=zombie",
		"/api/v1/inventory/recommendations?priority=later",
		"/api/v1/inventory/recommendations?limit=-1",
		"/api/v1/inventory/export?kind=history",
	} {
		w := serve(t, &fakeReorderService{}, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestLatestRunEndpoint(t *testing.T) {
	w := serve(t, &fakeReorderService{}, http.MethodGet, "/api/v1/inventory/runs/latest")
	assert.Equal(t, http.StatusNotFound, w.Code)

	svc := &fakeReorderService{run: &pipeline.Run{ID: 7, Status: pipeline.StatusCompleted}}
	w = serve(t, svc, http.MethodGet, "/api/v1/inventory/runs/latest")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":7`)
}

func TestSummaryEndpointError(t *testing.T) {
	w := serve(t, &fakeReorderService{err: errors.New("db down")}, http.MethodGet, "/api/v1/inventory/summary")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	w := serve(t, &fakeReorderService{}, http.MethodGet, "/api/v1/inventory/export?kind=analytics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "atk_analytics_")
	assert.Equal(t, "PK", w.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	w := serve(t, nil, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}

func TestCORSConfig(t *testing.T) {
	cfg := corsConfig(nil)
	assert.Equal(t, defaultOrigins, cfg.AllowOrigins)

	cfg = corsConfig([]string{"https://atk.example"})
	assert.Equal(t, []string{"https://atk.example"}, cfg.AllowOrigins)

	cfg = corsConfig([]string{"*"})
	assert.Nil(t, cfg.AllowOrigins)
	require.NotNil(t, cfg.AllowOriginFunc)
	assert.True(t, cfg.AllowOriginFunc("https://anything.test"))
}

func TestResponsesCarryRequestID(t *testing.T) {
	w := serve(t, &fakeReorderService{}, http.MethodGet, "/api/v1/inventory/analytics")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
