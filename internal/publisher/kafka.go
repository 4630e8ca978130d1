package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TrendSentinel/internal/model"

	"github.com/segmentio/kafka-go"
)

// EventScreenPassed is emitted once per ticker that passes the trend template.
const EventScreenPassed = "SCREEN_PASSED"

// ScreenEvent is the message payload written to Kafka.
type ScreenEvent struct {
	EventType  string             `json:"event_type"`
	RunID      string             `json:"run_id"`
	Symbol     string             `json:"symbol"`
	Counter    int                `json:"counter"`
	Benchmark  string             `json:"benchmark"`
	Indicators model.IndicatorSet `json:"indicators"`
	Date       string             `json:"date"`
	Timestamp  time.Time          `json:"timestamp"`
}

// Publisher fans a finished report out to downstream consumers.
type Publisher interface {
	PublishReport(ctx context.Context, report *model.ScreenReport) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes screen events to a Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewKafkaPublisher creates a Kafka publisher
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, topic: topic, now: time.Now}
}

// PublishReport writes one SCREEN_PASSED event per passing ticker in a single batch.
func (p *KafkaPublisher) PublishReport(ctx context.Context, report *model.ScreenReport) error {
	msgs, err := BuildMessages(report, p.now())
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write %d messages to kafka: %w", len(msgs), err)
	}
	return nil
}

// BuildMessages converts the passing rows of a report into keyed Kafka messages.
func BuildMessages(report *model.ScreenReport, ts time.Time) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(report.Results))
	for _, res := range report.Results {
		event := ScreenEvent{
			EventType:  EventScreenPassed,
			RunID:      report.RunID,
			Symbol:     res.Ticker,
			Counter:    res.Counter,
			Benchmark:  report.Benchmark,
			Indicators: res.Indicators,
			Date:       res.Date.Format("2006-01-02"),
			Timestamp:  ts,
		}
		data, err := json.Marshal(event)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event: %w", err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(res.Ticker), Value: data})
	}
	return msgs, nil
}

// Close closes the Kafka writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishReport(context.Context, *model.ScreenReport) error { return nil }

func (NoopPublisher) Close() error { return nil }
