package domain

import "strings"

// HealthStatus classifies how recently an item has been consumed.
type HealthStatus string

const (
	HealthHealthy HealthStatus = "healthy"
	HealthSlow    HealthStatus = "slow"
	HealthDead    HealthStatus = "dead"
	HealthUnknown HealthStatus = "unknown"
)

var healthStatuses = map[string]HealthStatus{
	"healthy": HealthHealthy,
	"slow":    HealthSlow,
	"dead":    HealthDead,
	"unknown": HealthUnknown,
}

// ParseHealthStatus returns the status for a given label (case-insensitive).
func ParseHealthStatus(label string) (HealthStatus, bool) {
	status, ok := healthStatuses[strings.ToLower(strings.TrimSpace(label))]
	return status, ok
}

// Priority is the urgency bucket of a reorder recommendation.
type Priority string

const (
	PriorityUrgent  Priority = "urgent"
	PrioritySoon    Priority = "soon"
	PriorityPlanned Priority = "planned"
	PrioritySafe    Priority = "safe"
)

var priorityRanks = map[Priority]int{
	PriorityUrgent:  0,
	PrioritySoon:    1,
	PriorityPlanned: 2,
	PrioritySafe:    3,
}

// Rank orders priorities from most urgent (0) to least urgent (3). Unknown
// values rank after safe.
func (p Priority) Rank() int {
	if rank, ok := priorityRanks[p]; ok {
		return rank
	}
	return len(priorityRanks)
}

// ParsePriority returns the priority for a given label (case-insensitive).
func ParsePriority(label string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(label)))
	_, ok := priorityRanks[p]
	return p, ok
}
