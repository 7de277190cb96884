package reorder

import (
	"testing"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	last := testNow

	tests := []struct {
		name    string
		days    domain.DayCount
		last    *time.Time
		balance int
		want    domain.HealthStatus
	}{
		{"stock but never used", domain.Unbounded(), nil, 5, domain.HealthDead},
		{"no stock never used", domain.Unbounded(), nil, 0, domain.HealthDead},
		{"used today", domain.Days(0), &last, 3, domain.HealthHealthy},
		{"used a week ago", domain.Days(7), &last, 3, domain.HealthHealthy},
		{"used eight days ago", domain.Days(8), &last, 3, domain.HealthSlow},
		{"used ninety days ago", domain.Days(90), &last, 3, domain.HealthSlow},
		{"used long ago", domain.Days(91), &last, 3, domain.HealthDead},
		{"clock skew", domain.Days(-1), &last, 3, domain.HealthUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.days, tt.last, tt.balance))
		})
	}
}
