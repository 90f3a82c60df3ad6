package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
	"github.com/turtacn/dimpat/internal/application/export"
	"github.com/turtacn/dimpat/internal/domain/extract"
	"github.com/turtacn/dimpat/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/dimpat/pkg/errors"
)

const SinkName = "kafka"

// Sink publishes every row of an extract as one message on the extract's
// topic.  Messages are keyed by patent id so all rows of a patent land on
// the same partition.
type Sink struct {
	producer *Producer
	prefix   string
	dial     func(brokers []string, log logging.Logger) (*TopicManager, error)
	logger   logging.Logger
}

func NewSink(p *Producer, log logging.Logger) *Sink {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Sink{producer: p, prefix: p.Config().TopicPrefix, dial: NewTopicManager, logger: log}
}

func (s *Sink) Name() string { return SinkName }

// Check dials the first broker and returns the extract topics that do not
// exist yet in the error detail.  Missing topics are an error only when the
// producer is not allowed to create them.
func (s *Sink) Check(ctx context.Context) error {
	cfg := s.producer.Config()
	tm, err := s.dial(cfg.Brokers, s.logger)
	if err != nil {
		return err
	}
	defer tm.Close()

	var missing []string
	for _, name := range extract.Names() {
		if err := ctx.Err(); err != nil {
			return err
		}
		topic := TopicName(s.prefix, name)
		if ok, _ := tm.TopicExists(ctx, topic); !ok {
			missing = append(missing, topic)
		}
	}
	if len(missing) > 0 && !cfg.EnsureTopics {
		return errors.New(errors.CodeMessageQueueError, "extract topics missing").
			WithDetail(strings.Join(missing, ","))
	}
	return nil
}

func (s *Sink) Write(ctx context.Context, runDate string, t *extract.Table) (*export.WriteResult, error) {
	topic := TopicName(s.prefix, t.Name)
	runID := export.RunIDFrom(ctx)

	msgs := make([]kafka.Message, 0, t.Len())
	var size int64
	for i, rec := range t.Records() {
		env, err := NewRowEnvelope(runID, runDate, t.Name, rec)
		if err != nil {
			return nil, err
		}
		msg, err := env.ToMessage(topic, []byte(fmt.Sprint(rec["patent_id"])))
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeEncodingFailed, "encode row").
				WithDetail(fmt.Sprintf("%s row %d", t.Name, i))
		}
		size += int64(len(msg.Value))
		msgs = append(msgs, msg)
	}

	written, err := s.producer.PublishBatch(ctx, msgs)
	if err != nil {
		s.logger.Warn("Partial extract publish",
			logging.String("topic", topic),
			logging.Int("written", written),
			logging.Int("rows", len(msgs)))
		return nil, err
	}

	return &export.WriteResult{
		Sink:     SinkName,
		Extract:  t.Name,
		Location: "kafka://" + topic,
		Rows:     written,
		Bytes:    size,
	}, nil
}

//Personal.AI order the ending
