package reorder

import (
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
)

// Classify maps recency and balance to a health status. Rules are evaluated
// in order and the first match wins:
//
//  1. stock on hand but never an outflow: dead
//  2. last outflow within 7 days: healthy
//  3. last outflow within 90 days: slow
//  4. otherwise: dead
//
// A negative day count (last outflow after now) cannot be placed and yields
// unknown.
func Classify(daysSinceLastOutflow domain.DayCount, lastOutflowAt *time.Time, balance int) domain.HealthStatus {
	if balance > 0 && lastOutflowAt == nil {
		return domain.HealthDead
	}

	days, bounded := daysSinceLastOutflow.Get()
	switch {
	case !bounded:
		return domain.HealthDead
	case days < 0:
		return domain.HealthUnknown
	case days <= HealthyMaxDays:
		return domain.HealthHealthy
	case days <= SlowMaxDays:
		return domain.HealthSlow
	default:
		return domain.HealthDead
	}
}
