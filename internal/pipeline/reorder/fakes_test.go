package reorder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
)

var errStore = errors.New("store unavailable")

type fakeLedger struct {
	items       []domain.StockItem
	itemsErr    error
	movements   map[int64][]domain.MovementRecord
	outflowErrs map[int64]error
}

func newFakeLedger(items ...domain.StockItem) *fakeLedger {
	return &fakeLedger{
		items:       items,
		movements:   map[int64][]domain.MovementRecord{},
		outflowErrs: map[int64]error{},
	}
}

func (f *fakeLedger) addOut(itemID int64, qty int, at time.Time) {
	id := int64(0)
	for _, ms := range f.movements {
		id += int64(len(ms))
	}
	f.movements[itemID] = append(f.movements[itemID], domain.MovementRecord{
		ID:        id + 1,
		ItemID:    itemID,
		Type:      domain.MovementOut,
		Quantity:  qty,
		CreatedAt: at,
	})
}

func (f *fakeLedger) ListActiveItems(ctx context.Context) ([]domain.StockItem, error) {
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.items, nil
}

func (f *fakeLedger) ListOutflowsSince(ctx context.Context, itemID int64, since time.Time) ([]domain.MovementRecord, error) {
	if err := f.outflowErrs[itemID]; err != nil {
		return nil, err
	}
	var out []domain.MovementRecord
	for _, m := range f.movements[itemID] {
		if !m.CreatedAt.Before(since) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeLedger) LastOutflowAt(ctx context.Context, itemID int64) (*time.Time, error) {
	var last *time.Time
	for _, m := range f.movements[itemID] {
		if m.Type != domain.MovementOut {
			continue
		}
		if last == nil || m.CreatedAt.After(*last) {
			t := m.CreatedAt
			last = &t
		}
	}
	return last, nil
}

type fakeStore struct {
	mu       sync.Mutex
	saved    map[int64]domain.ItemResult
	failFor  map[int64]bool
	saveHits int
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[int64]domain.ItemResult{}, failFor: map[int64]bool{}}
}

func (s *fakeStore) SaveItemResult(ctx context.Context, result domain.ItemResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveHits++
	if s.failFor[result.Analytics.ItemID] {
		return errStore
	}
	s.saved[result.Analytics.ItemID] = result
	return nil
}

func (s *fakeStore) ListAnalytics(ctx context.Context, filter domain.ResultFilter) ([]domain.AnalyticsView, error) {
	return nil, nil
}

func (s *fakeStore) ListRecommendations(ctx context.Context, filter domain.ResultFilter) ([]domain.RecommendationView, error) {
	return nil, nil
}

func (s *fakeStore) GetResultSummary(ctx context.Context) (domain.ResultSummary, error) {
	return domain.ResultSummary{}, nil
}

func intPtr(v int) *int { return &v }
