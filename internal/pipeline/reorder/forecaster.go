package reorder

import (
	"fmt"
	"strings"
)

// Forecaster estimates daily demand for the reorder calculation.
type Forecaster interface {
	Name() string
	DailyDemand(u Usage) float64
}

// FlatForecaster uses the 90-day average with no trend component.
type FlatForecaster struct{}

func (FlatForecaster) Name() string { return "flat" }

func (FlatForecaster) DailyDemand(u Usage) float64 {
	return u.AvgDailyUsage
}

// BlendedForecaster weights the 30-day rate against the 90-day rate so recent
// acceleration or slowdown shows up sooner. RecentWeight is clamped to [0, 1].
type BlendedForecaster struct {
	RecentWeight float64
}

func (BlendedForecaster) Name() string { return "blended" }

func (f BlendedForecaster) DailyDemand(u Usage) float64 {
	w := f.RecentWeight
	if w < 0 {
		w = 0
	}
	if w > 1 {
		w = 1
	}
	return w*u.RecentDailyUsage + (1-w)*u.AvgDailyUsage
}

// NewForecaster resolves a forecaster by name. An empty name means flat.
func NewForecaster(name string, recentWeight float64) (Forecaster, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "flat":
		return FlatForecaster{}, nil
	case "blended":
		return BlendedForecaster{RecentWeight: recentWeight}, nil
	default:
		return nil, fmt.Errorf("unknown forecaster %q", name)
	}
}
