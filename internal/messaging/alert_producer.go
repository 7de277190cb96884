package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/andresuchdata/atk-reorder/backend-go/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	EventReorderUrgent = "reorder.urgent"
	EventReorderSoon   = "reorder.soon"
)

// ReorderAlert is published for every urgent or soon recommendation after a
// run. The WhatsApp notifier renders Message as-is.
type ReorderAlert struct {
	Type                  string          `json:"type"`
	RunID                 int64           `json:"run_id,omitempty"`
	ItemID                int64           `json:"item_id"`
	ItemName              string          `json:"item_name"`
	Unit                  string          `json:"unit"`
	Priority              domain.Priority `json:"priority"`
	CurrentStock          int             `json:"current_stock"`
	ReorderPoint          int             `json:"reorder_point"`
	SuggestedQty          int             `json:"suggested_qty"`
	DaysUntilReorder      domain.DayCount `json:"days_until_reorder"`
	EstimatedStockoutDate *domain.Date    `json:"estimated_stockout_date"`
	EstimatedOrderCost    decimal.Decimal `json:"estimated_order_cost"`
	Message               string          `json:"message"`
	Timestamp             time.Time       `json:"timestamp"`
}

// NewReorderAlert builds the alert for one recommendation. ok is false for
// priorities that do not alert.
func NewReorderAlert(runID int64, rec domain.RecommendationView, at time.Time) (ReorderAlert, bool) {
	var eventType string
	switch rec.Priority {
	case domain.PriorityUrgent:
		eventType = EventReorderUrgent
	case domain.PrioritySoon:
		eventType = EventReorderSoon
	default:
		return ReorderAlert{}, false
	}

	return ReorderAlert{
		Type:                  eventType,
		RunID:                 runID,
		ItemID:                rec.ItemID,
		ItemName:              rec.ItemName,
		Unit:                  rec.Unit,
		Priority:              rec.Priority,
		CurrentStock:          rec.CurrentStock,
		ReorderPoint:          rec.ReorderPoint,
		SuggestedQty:          rec.SuggestedQty,
		DaysUntilReorder:      rec.DaysUntilReorder,
		EstimatedStockoutDate: rec.EstimatedStockoutDate,
		EstimatedOrderCost:    rec.EstimatedOrderCost,
		Message:               alertMessage(rec),
		Timestamp:             at,
	}, true
}

func alertMessage(rec domain.RecommendationView) string {
	msg := fmt.Sprintf("[%s] %s: stok %s %s, titik pesan ulang %s. Saran order %s %s",
		labelFor(rec.Priority),
		rec.ItemName,
		FormatIDNumber(float64(rec.CurrentStock), 0), rec.Unit,
		FormatIDNumber(float64(rec.ReorderPoint), 0),
		FormatIDNumber(float64(rec.SuggestedQty), 0), rec.Unit,
	)
	if rec.EstimatedOrderCost.IsPositive() {
		msg += fmt.Sprintf(" (Rp %s)", FormatIDNumber(rec.EstimatedOrderCost.InexactFloat64(), 0))
	}
	msg += "."
	if rec.EstimatedStockoutDate != nil {
		msg += " Perkiraan habis " + rec.EstimatedStockoutDate.String() + "."
	}
	return msg
}

func labelFor(p domain.Priority) string {
	switch p {
	case domain.PriorityUrgent:
		return "MENDESAK"
	case domain.PrioritySoon:
		return "SEGERA"
	default:
		return string(p)
	}
}

// AlertPublisher sends reorder alerts to the notifier.
type AlertPublisher interface {
	PublishReorderAlerts(ctx context.Context, alerts []ReorderAlert) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaAlertPublisher struct {
	writer messageWriter
}

func NewKafkaAlertPublisher(brokers []string, topic string) AlertPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}

	return &kafkaAlertPublisher{writer: writer}
}

func newAlertPublisherWithWriter(w messageWriter) AlertPublisher {
	return &kafkaAlertPublisher{writer: w}
}

func (p *kafkaAlertPublisher) PublishReorderAlerts(ctx context.Context, alerts []ReorderAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	messages := make([]kafka.Message, 0, len(alerts))
	for _, alert := range alerts {
		payload, err := json.Marshal(alert)
		if err != nil {
			return fmt.Errorf("failed to marshal reorder alert for item %d: %w", alert.ItemID, err)
		}

		messages = append(messages, kafka.Message{
			Key:   []byte(strconv.FormatInt(alert.ItemID, 10)),
			Value: payload,
			Time:  alert.Timestamp,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(alert.Type)},
			},
		})
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("failed to write reorder alerts to kafka: %w", err)
	}

	return nil
}

func (p *kafkaAlertPublisher) Close() error {
	return p.writer.Close()
}

type noopAlertPublisher struct{}

func NewNoopAlertPublisher() AlertPublisher {
	return noopAlertPublisher{}
}

func (noopAlertPublisher) PublishReorderAlerts(ctx context.Context, alerts []ReorderAlert) error {
	return nil
}

func (noopAlertPublisher) Close() error { return nil }
