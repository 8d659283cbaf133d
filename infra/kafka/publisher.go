// Package kafka publishes committed schedules and assignments to Kafka topics.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"

	"github.com/kilianp07/lineplan/core/events"
	"github.com/kilianp07/lineplan/core/notify"
	"github.com/kilianp07/lineplan/infra/logger"
)

// ErrCircuitOpen is returned while the breaker rejects writes.
var ErrCircuitOpen = errors.New("kafka circuit breaker is open")

// Config holds the Kafka producer settings.
type Config struct {
	Enabled          bool     `json:"enabled"`
	Brokers          []string `json:"brokers"`
	ScheduleTopic    string   `json:"schedule_topic"`
	AssignmentTopic  string   `json:"assignment_topic"`
	BatchTimeoutMS   int      `json:"batch_timeout_ms"`
	RequiredAcks     int      `json:"required_acks"`
	BreakerFailures  uint32   `json:"breaker_failures"`
	BreakerTimeoutMS int      `json:"breaker_timeout_ms"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ScheduleTopic == "" {
		c.ScheduleTopic = "lineplan.schedules"
	}
	if c.AssignmentTopic == "" {
		c.AssignmentTopic = "lineplan.assignments"
	}
	if c.BatchTimeoutMS <= 0 {
		c.BatchTimeoutMS = 10
	}
	if c.RequiredAcks == 0 {
		c.RequiredAcks = int(kafka.RequireOne)
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerTimeoutMS <= 0 {
		c.BreakerTimeoutMS = 30000
	}
}

// Validate checks the settings when the producer is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required")
	}
	if c.RequiredAcks < -1 || c.RequiredAcks > 1 {
		return fmt.Errorf("kafka required_acks must be -1, 0 or 1")
	}
	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements notify.Publisher with one writer per topic. Messages
// are keyed by line or staff id so each consumer partition sees them in order.
type Publisher struct {
	schedules   messageWriter
	assignments messageWriter
	breaker     *gobreaker.CircuitBreaker
	logger      logger.Logger
	now         func() time.Time
}

var _ notify.Publisher = (*Publisher)(nil)

// NewPublisher creates writers for both topics. Connections are opened lazily
// by kafka-go on the first write.
func NewPublisher(cfg Config) *Publisher {
	cfg.SetDefaults()
	newWriter := func(topic string) messageWriter {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: time.Duration(cfg.BatchTimeoutMS) * time.Millisecond,
			RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		}
	}
	return newPublisher(cfg, newWriter(cfg.ScheduleTopic), newWriter(cfg.AssignmentTopic))
}

func newPublisher(cfg Config, schedules, assignments messageWriter) *Publisher {
	cfg.SetDefaults()
	log := logger.New("kafka_publisher")
	failures := cfg.BreakerFailures
	return &Publisher{
		schedules:   schedules,
		assignments: assignments,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "kafka",
			Timeout: time.Duration(cfg.BreakerTimeoutMS) * time.Millisecond,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warnw("circuit breaker state changed", map[string]any{
					"name": name, "from": from.String(), "to": to.String(),
				})
			},
		}),
		logger: log,
		now:    time.Now,
	}
}

// PublishSchedule writes the schedule keyed by its line id.
func (p *Publisher) PublishSchedule(ctx context.Context, ev events.ScheduleCommittedEvent) error {
	msg := notify.NewScheduleMessage(ev, p.now())
	return p.write(ctx, p.schedules, strconv.FormatInt(ev.Schedule.LineID, 10), ev.PlanID, msg)
}

// PublishAssignment writes the assignment keyed by its staff id.
func (p *Publisher) PublishAssignment(ctx context.Context, ev events.AssignmentCommittedEvent) error {
	msg := notify.NewAssignmentMessage(ev, p.now())
	return p.write(ctx, p.assignments, strconv.FormatInt(ev.Assignment.StaffID, 10), ev.PlanID, msg)
}

func (p *Publisher) write(ctx context.Context, w messageWriter, key, planID string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(key),
		Value:   data,
		Headers: []kafka.Header{{Key: "plan-id", Value: []byte(planID)}, {Key: "content-type", Value: []byte("application/json")}},
		Time:    p.now(),
	}
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, w.WriteMessages(ctx, msg)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return ErrCircuitOpen
	case err != nil:
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

// State exposes the breaker state.
func (p *Publisher) State() gobreaker.State {
	return p.breaker.State()
}

// Close flushes and closes both writers.
func (p *Publisher) Close() error {
	return errors.Join(p.schedules.Close(), p.assignments.Close())
}
