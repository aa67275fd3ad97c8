package judge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Producer enqueues judge jobs. Keyed by submission so one team's attempts
// stay ordered within a partition.
type Producer struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

func NewProducer(brokers []string, topic string, logger zerolog.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{
		writer: writer,
		logger: logger.With().Str("component", "judge-producer").Logger(),
	}
}

func (p *Producer) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(job.ContestID),
		Value: data,
	})
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("contestId", job.ContestID).
		Str("teamId", job.TeamID).
		Str("problemId", job.ProblemID).
		Str("memberId", job.MemberID).
		Msg("Judge job enqueued")

	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
