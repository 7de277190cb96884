package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/cache"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/export"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/messaging"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/pipeline"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/pipeline/reorder"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/repository"
	"github.com/andresuchdata/atk-reorder/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrStorageDisabled is returned by Upload when no object storage is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// ResultKind selects which derived table a read or export targets.
type ResultKind string

const (
	KindAnalytics       ResultKind = "analytics"
	KindRecommendations ResultKind = "recommendations"
)

func ParseResultKind(s string) (ResultKind, error) {
	switch ResultKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindAnalytics:
		return KindAnalytics, nil
	case KindRecommendations, "":
		return KindRecommendations, nil
	default:
		return "", fmt.Errorf("unknown result kind %q (want analytics or recommendations)", s)
	}
}

// Recomputer runs one full recomputation.
type Recomputer interface {
	Recompute(ctx context.Context) (reorder.Report, error)
}

type ReorderService struct {
	engine  Recomputer
	store   repository.RecommendationStore
	runs    pipeline.RunRecorder
	cache   cache.ResultCache
	alerts  messaging.AlertPublisher
	storage storage.ObjectStorage
	now     func() time.Time
}

// NewReorderService wires the engine to its supporting services. runs, cache
// and alerts may be nil; storage may be nil when uploads are disabled.
func NewReorderService(
	engine Recomputer,
	store repository.RecommendationStore,
	runs pipeline.RunRecorder,
	cacheImpl cache.ResultCache,
	alerts messaging.AlertPublisher,
	objects storage.ObjectStorage,
) *ReorderService {
	if runs == nil {
		runs = pipeline.NoopRecorder{}
	}
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopResultCache()
	}
	if alerts == nil {
		alerts = messaging.NewNoopAlertPublisher()
	}
	return &ReorderService{
		engine:  engine,
		store:   store,
		runs:    runs,
		cache:   cacheImpl,
		alerts:  alerts,
		storage: objects,
		now:     time.Now,
	}
}

// Recompute runs the engine and records the run. The returned error is
// non-nil only when the run could not start or was interrupted; item
// failures are reported through Failed.
func (s *ReorderService) Recompute(ctx context.Context, trigger pipeline.Trigger) (domain.RecomputeSummary, error) {
	// Bookkeeping must survive a caller that gives up mid-run.
	bgCtx := context.WithoutCancel(ctx)

	run := &pipeline.Run{
		Trigger:   trigger,
		Status:    pipeline.StatusProcessing,
		StartedAt: s.now(),
	}
	if err := s.runs.CreateRun(bgCtx, run); err != nil {
		log.Warn().Err(err).Msg("reorder: failed to record run start")
	}

	report, runErr := s.engine.Recompute(ctx)

	completedAt := s.now()
	run.CompletedAt = &completedAt
	run.ProcessedItems = report.Summary.Health.Total
	run.FailedItems = report.Summary.Failed
	run.TotalItems = report.Summary.TotalItems
	run.Status = pipeline.StatusCompleted
	if runErr != nil {
		run.Status = pipeline.StatusFailed
		run.ErrorMessage = runErr.Error()
	}
	if err := s.runs.UpdateRun(bgCtx, run); err != nil {
		log.Warn().Err(err).Int64("run_id", run.ID).Msg("reorder: failed to record run completion")
	}

	summary := report.Summary
	summary.RunID = run.ID

	if runErr != nil && errors.Is(runErr, reorder.ErrCatalogUnavailable) {
		return summary, runErr
	}

	// Interrupted runs still persisted some rows.
	if err := s.cache.InvalidateAll(bgCtx); err != nil {
		log.Warn().Err(err).Msg("reorder: cache invalidation failed")
	}

	if runErr != nil {
		return summary, runErr
	}

	if err := s.publishAlerts(bgCtx, run.ID, report); err != nil {
		log.Warn().Err(err).Int64("run_id", run.ID).Msg("reorder: failed to publish alerts")
	}

	return summary, nil
}

// publishAlerts sends urgent and soon items written by this run.
func (s *ReorderService) publishAlerts(ctx context.Context, runID int64, report reorder.Report) error {
	if report.Summary.Reorder.Urgent+report.Summary.Reorder.Soon == 0 {
		return nil
	}

	written := make(map[int64]bool, len(report.Results))
	for _, r := range report.Results {
		written[r.Recommendation.ItemID] = true
	}

	var urgent, soon []domain.RecommendationView
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		urgent, err = s.store.ListRecommendations(gctx, domain.ResultFilter{Priority: domain.PriorityUrgent})
		return err
	})
	g.Go(func() error {
		var err error
		soon, err = s.store.ListRecommendations(gctx, domain.ResultFilter{Priority: domain.PrioritySoon})
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load alert candidates: %w", err)
	}

	at := s.now()
	var alerts []messaging.ReorderAlert
	for _, rec := range append(urgent, soon...) {
		if !written[rec.ItemID] {
			continue
		}
		if alert, ok := messaging.NewReorderAlert(runID, rec, at); ok {
			alerts = append(alerts, alert)
		}
	}

	if err := s.alerts.PublishReorderAlerts(ctx, alerts); err != nil {
		return err
	}

	log.Info().Int("alerts", len(alerts)).Int64("run_id", runID).Msg("reorder: alerts published")
	return nil
}

// cacheGeneration returns the generation to read and fill under. ok is false
// when the cache is unreachable and the store should be read directly.
func (s *ReorderService) cacheGeneration(ctx context.Context) (int64, bool) {
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("reorder: cache generation unavailable")
		return 0, false
	}
	return gen, true
}

func (s *ReorderService) FetchAnalytics(ctx context.Context, filter domain.ResultFilter) ([]domain.AnalyticsView, error) {
	gen, cached := s.cacheGeneration(ctx)
	if cached {
		if rows, ok, err := s.cache.GetAnalytics(ctx, gen, filter); err == nil && ok {
			return rows, nil
		} else if err != nil {
			log.Warn().Err(err).Msg("reorder: cache get analytics failed")
		}
	}

	rows, err := s.store.ListAnalytics(ctx, filter)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = make([]domain.AnalyticsView, 0)
	}

	if cached {
		if err := s.cache.SetAnalytics(ctx, gen, filter, rows); err != nil {
			log.Warn().Err(err).Msg("reorder: cache set analytics failed")
		}
	}

	return rows, nil
}

func (s *ReorderService) FetchRecommendations(ctx context.Context, filter domain.ResultFilter) ([]domain.RecommendationView, error) {
	gen, cached := s.cacheGeneration(ctx)
	if cached {
		if rows, ok, err := s.cache.GetRecommendations(ctx, gen, filter); err == nil && ok {
			return rows, nil
		} else if err != nil {
			log.Warn().Err(err).Msg("reorder: cache get recommendations failed")
		}
	}

	rows, err := s.store.ListRecommendations(ctx, filter)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = make([]domain.RecommendationView, 0)
	}

	if cached {
		if err := s.cache.SetRecommendations(ctx, gen, filter, rows); err != nil {
			log.Warn().Err(err).Msg("reorder: cache set recommendations failed")
		}
	}

	return rows, nil
}

func (s *ReorderService) GetResultSummary(ctx context.Context) (domain.ResultSummary, error) {
	gen, cached := s.cacheGeneration(ctx)
	if cached {
		if summary, ok, err := s.cache.GetSummary(ctx, gen); err == nil && ok {
			return summary, nil
		} else if err != nil {
			log.Warn().Err(err).Msg("reorder: cache get summary failed")
		}
	}

	summary, err := s.store.GetResultSummary(ctx)
	if err != nil {
		return summary, err
	}

	if cached {
		if err := s.cache.SetSummary(ctx, gen, summary); err != nil {
			log.Warn().Err(err).Msg("reorder: cache set summary failed")
		}
	}

	return summary, nil
}

// LatestRun returns the newest run record, or nil when nothing has run yet.
func (s *ReorderService) LatestRun(ctx context.Context) (*pipeline.Run, error) {
	return s.runs.GetLatestRun(ctx)
}

// Export renders the persisted rows of kind as an XLSX workbook.
func (s *ReorderService) Export(ctx context.Context, kind ResultKind, filter domain.ResultFilter) ([]byte, error) {
	switch kind {
	case KindAnalytics:
		rows, err := s.FetchAnalytics(ctx, filter)
		if err != nil {
			return nil, err
		}
		f, err := export.AnalyticsWorkbook(rows)
		if err != nil {
			return nil, err
		}
		return export.Bytes(f)
	case KindRecommendations:
		rows, err := s.FetchRecommendations(ctx, filter)
		if err != nil {
			return nil, err
		}
		f, err := export.RecommendationsWorkbook(rows)
		if err != nil {
			return nil, err
		}
		return export.Bytes(f)
	default:
		return nil, fmt.Errorf("unknown result kind %q", kind)
	}
}

// ExportFileName is the default object name for an export taken at t.
func ExportFileName(kind ResultKind, t time.Time) string {
	return fmt.Sprintf("atk_%s_%s.xlsx", kind, t.Format("20060102_150405"))
}

// Upload stores an exported workbook under name.
func (s *ReorderService) Upload(ctx context.Context, name string, data []byte) error {
	if s.storage == nil {
		return ErrStorageDisabled
	}
	if err := s.storage.UploadObject(ctx, name, data, export.ContentTypeXLSX); err != nil {
		return err
	}
	log.Info().Str("object", name).Int("bytes", len(data)).Msg("reorder: export uploaded")
	return nil
}

// ListUploads returns previously uploaded workbooks, newest first.
func (s *ReorderService) ListUploads(ctx context.Context) ([]storage.ObjectInfo, error) {
	if s.storage == nil {
		return nil, ErrStorageDisabled
	}
	objects, err := s.storage.ListObjects(ctx, "")
	if err != nil {
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool {
		return objects[i].LastModified.After(objects[j].LastModified)
	})
	return objects, nil
}
