package kafka

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/pkg/errors"
)

const (
	EventTypeExtractRow = "dimpat.extract.row"
	EventSource         = "dimpat"
	SchemaVersion       = "v1"
)

// Header keys set on every row message.
const (
	HeaderEventType = "event_type"
	HeaderRunID     = "run_id"
	HeaderRunDate   = "run_date"
	HeaderExtract   = "extract"
)

// TopicName returns the topic receiving rows of extract name.
func TopicName(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// RowEnvelope wraps one extract row.
type RowEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	SchemaVersion string          `json:"schema_version"`
	RunID         string          `json:"run_id,omitempty"`
	RunDate       string          `json:"run_date"`
	Extract       string          `json:"extract"`
	Payload       json.RawMessage `json:"payload"`
}

// NewRowEnvelope marshals row into a new envelope.
func NewRowEnvelope(runID, runDate, name string, row map[string]any) (*RowEnvelope, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal row")
	}
	return &RowEnvelope{
		EventID:       uuid.New().String(),
		EventType:     EventTypeExtractRow,
		Source:        EventSource,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: SchemaVersion,
		RunID:         runID,
		RunDate:       runDate,
		Extract:       name,
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the row into target.
func (e *RowEnvelope) DecodePayload(target any) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return nil
	}
	return json.Unmarshal(e.Payload, target)
}

// ToMessage builds the kafka message for topic, keyed by key.
func (e *RowEnvelope) ToMessage(topic string, key []byte) (kafka.Message, error) {
	val, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}
	headers := []kafka.Header{
		{Key: HeaderEventType, Value: []byte(e.EventType)},
		{Key: HeaderRunDate, Value: []byte(e.RunDate)},
		{Key: HeaderExtract, Value: []byte(e.Extract)},
	}
	if e.RunID != "" {
		headers = append(headers, kafka.Header{Key: HeaderRunID, Value: []byte(e.RunID)})
	}
	return kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   val,
		Headers: headers,
		Time:    e.Timestamp,
	}, nil
}

// MessageToRowEnvelope decodes a consumed message.
func MessageToRowEnvelope(msg kafka.Message) (*RowEnvelope, error) {
	if len(msg.Value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env RowEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to unmarshal envelope")
	}
	return &env, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Topic management
// ─────────────────────────────────────────────────────────────────────────────

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates the extract topics ahead of a run on clusters that
// disable auto creation.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeMessageQueueError, "failed to dial kafka")
	}
	return NewTopicManagerWithConn(conn, logger), nil
}

func NewTopicManagerWithConn(conn ConnInterface, logger logging.Logger) *TopicManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TopicManager{conn: conn, logger: logger}
}

// ExtractTopics returns one topic config per extract.
func ExtractTopics(cfg ProducerConfig) []kafka.TopicConfig {
	cfg.applyDefaults()
	names := extract.Names()
	out := make([]kafka.TopicConfig, 0, len(names))
	for _, name := range names {
		out = append(out, kafka.TopicConfig{
			Topic:             TopicName(cfg.TopicPrefix, name),
			NumPartitions:     cfg.Partitions,
			ReplicationFactor: cfg.Replication,
			ConfigEntries: []kafka.ConfigEntry{
				{ConfigName: "retention.ms", ConfigValue: fmt.Sprintf("%d", (30 * 24 * time.Hour).Milliseconds())},
			},
		})
	}
	return out
}

func (m *TopicManager) TopicExists(ctx context.Context, name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, nil
	}
	return len(partitions) > 0, nil
}

// EnsureTopics creates every missing topic.  Existing topics are left as
// they are.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []kafka.TopicConfig) error {
	for _, topic := range topics {
		if err := ctx.Err(); err != nil {
			return err
		}
		if exists, _ := m.TopicExists(ctx, topic.Topic); exists {
			continue
		}
		if err := m.conn.CreateTopics(topic); err != nil {
			if stderrors.Is(err, kafka.TopicAlreadyExists) {
				continue
			}
			return errors.Wrap(err, errors.CodeMessageQueueError, "failed to create topic").WithDetail(topic.Topic)
		}
		m.logger.Info("Topic created", logging.String("topic", topic.Topic))
	}
	return nil
}

func (m *TopicManager) Close() error {
	return m.conn.Close()
}

//Personal.AI order the ending
