// Package consumer reads queued write commands from Kafka and applies them
// through the ingestion service.
package consumer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/metrics"
)

// Applier executes one command. *ingestion.Service implements it.
type Applier interface {
	Apply(ctx context.Context, cmd ingestion.Command) (*ingestion.Summary, error)
}

// IndexConsumer wraps a Kafka consumer to drive the write pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   logger.WithComponent("index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a Kafka MessageHandler that decodes each command and
// applies it. Commands that can never succeed (undecodable, invalid, or
// rejected for their content) are reported as permanent so the consumer moves
// past them; engine and cache failures are returned for retry. m may be nil.
func HandleMessage(applier Applier, m *metrics.Metrics) kafka.MessageHandler {
	log := logger.WithComponent("index-consumer")
	count := func(status string) {
		if m != nil {
			m.IndexCommandsTotal.WithLabelValues(status).Inc()
		}
	}
	return func(ctx context.Context, key []byte, value []byte) error {
		cmd, err := kafka.DecodeJSON[ingestion.Command](value)
		if err != nil {
			log.Error("failed to decode index command", "error", err, "key", string(key))
			count("invalid")
			return &kafka.PermanentError{Err: err}
		}
		if err := validator.ValidateCommand(&cmd); err != nil {
			log.Error("rejecting invalid index command", "command_id", cmd.ID, "error", err)
			count("invalid")
			return &kafka.PermanentError{Err: err}
		}

		ctx = logger.WithRequestID(ctx, cmd.ID)
		log.Debug("applying index command", "command_id", cmd.ID, "index", cmd.Index, "op", cmd.Op)
		sum, err := applier.Apply(ctx, cmd)
		if err != nil {
			if permanent(err) {
				count("rejected")
				return &kafka.PermanentError{Err: err}
			}
			count("failed")
			return err
		}
		count("applied")
		log.Info("index command applied",
			"command_id", cmd.ID,
			"index", sum.Index,
			"op", sum.Op,
			"documents", sum.Documents,
		)
		return nil
	}
}

func permanent(err error) bool {
	return errors.Is(err, apperrors.ErrConfiguration) ||
		errors.Is(err, apperrors.ErrMalformedRecord) ||
		errors.Is(err, apperrors.ErrInvalidFieldReference)
}
