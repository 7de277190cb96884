package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayCountSentinelBoundary(t *testing.T) {
	assert.Equal(t, 999, Unbounded().Sentinel())
	assert.Equal(t, 12, Days(12).Sentinel())
	assert.Equal(t, 1500, Days(1500).Sentinel())

	days, ok := Days(3).Get()
	assert.True(t, ok)
	assert.Equal(t, 3, days)
	_, ok = Unbounded().Get()
	assert.False(t, ok)
}

func TestDayCountJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		A DayCount `json:"a"`
		B DayCount `json:"b"`
	}{Days(4), Unbounded()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":4,"b":999}`, string(data))

	var d DayCount
	require.NoError(t, json.Unmarshal([]byte("999"), &d))
	assert.True(t, d.IsUnbounded())
	require.NoError(t, json.Unmarshal([]byte("null"), &d))
	assert.True(t, d.IsUnbounded())
	require.NoError(t, json.Unmarshal([]byte("4320"), &d))
	assert.Equal(t, Days(4320), d)
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &d))
}

func TestDayCountSQL(t *testing.T) {
	v, err := Unbounded().Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var d DayCount
	require.NoError(t, d.Scan(int64(7)))
	assert.Equal(t, Days(7), d)
	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsUnbounded())
	assert.Error(t, d.Scan("7"))
}

func TestDayCountSQLKeepsLongBoundedCounts(t *testing.T) {
	for _, n := range []int{999, 1500, 4320} {
		v, err := Days(n).Value()
		require.NoError(t, err)
		assert.Equal(t, int64(n), v)

		var back DayCount
		require.NoError(t, back.Scan(v))
		assert.False(t, back.IsUnbounded(), "days=%d", n)
		assert.Equal(t, Days(n), back)
	}

	data, err := json.Marshal(Days(4320))
	require.NoError(t, err)
	assert.Equal(t, "4320", string(data))
}

func TestDate(t *testing.T) {
	d := NewDate(time.Date(2025, 5, 20, 17, 45, 0, 0, time.UTC))
	assert.Equal(t, "2025-05-20", d.String())

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-05-20"`, string(data))

	var back Date
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "2025-05-20", back.String())

	var scanned Date
	require.NoError(t, scanned.Scan([]byte("2025-05-20T00:00:00Z")))
	assert.Equal(t, "2025-05-20", scanned.String())
	assert.Error(t, scanned.Scan(42))
}

func TestStatusParsing(t *testing.T) {
	s, ok := ParseHealthStatus(" Dead ")
	assert.True(t, ok)
	assert.Equal(t, HealthDead, s)
	_, ok = ParseHealthStatus("zombie")
	assert.False(t, ok)

	p, ok := ParsePriority("URGENT")
	assert.True(t, ok)
	assert.Equal(t, PriorityUrgent, p)
	_, ok = ParsePriority("later")
	assert.False(t, ok)

	assert.Less(t, PriorityUrgent.Rank(), PrioritySoon.Rank())
	assert.Less(t, PrioritySoon.Rank(), PriorityPlanned.Rank())
	assert.Less(t, PriorityPlanned.Rank(), PrioritySafe.Rank())
}

func TestSummariesPartition(t *testing.T) {
	var h HealthSummary
	for _, s := range []HealthStatus{HealthHealthy, HealthSlow, HealthDead, HealthUnknown, "bogus"} {
		h.Add(s)
	}
	assert.Equal(t, 5, h.Total)
	assert.Equal(t, h.Total, h.Healthy+h.Slow+h.Dead+h.Unknown)
	assert.Equal(t, 2, h.Unknown)

	var r ReorderSummary
	r.AddCount(PriorityUrgent, 3)
	r.AddCount(PrioritySafe, 2)
	assert.Equal(t, 5, r.Total)
}

func TestMovementValidate(t *testing.T) {
	ok := MovementRecord{ID: 1, Type: MovementOut, Quantity: 1, CreatedAt: time.Now()}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.Quantity = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidMovement)

	bad = ok
	bad.Type = "adj"
	assert.ErrorIs(t, bad.Validate(), ErrInvalidMovement)

	bad = ok
	bad.CreatedAt = time.Time{}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidMovement)
}

func TestEffectiveLeadTime(t *testing.T) {
	five := 5
	zero := 0
	assert.Equal(t, 5, StockItem{LeadTimeDays: &five}.EffectiveLeadTime(10))
	assert.Equal(t, 10, StockItem{LeadTimeDays: &zero}.EffectiveLeadTime(10))
	assert.Equal(t, DefaultLeadTimeDays, StockItem{}.EffectiveLeadTime(0))
}
