// Package publisher queues write commands on Kafka for the indexer to apply.
// Commands are keyed by index name, so writes to one index keep their order.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion/validator"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/kafka"
)

// Producer is the part of kafka.Producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, event kafka.Event) error
}

type Publisher struct {
	producer Producer
	logger   *slog.Logger
	now      func() time.Time
}

func New(producer Producer) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
		now:      time.Now,
	}
}

// Enqueue validates cmd, stamps it with an id and publishes it. The returned
// summary reports the command as queued; the document count is not known
// until the indexer applies it.
func (p *Publisher) Enqueue(ctx context.Context, cmd ingestion.Command) (*ingestion.Summary, error) {
	if err := validator.ValidateCommand(&cmd); err != nil {
		return nil, err
	}
	if cmd.ID == "" {
		cmd.ID = uuid.NewString()
	}
	cmd.IssuedAt = p.now().UTC()

	event := kafka.Event{
		Key:     cmd.Index,
		Value:   cmd,
		Headers: map[string]string{"op": string(cmd.Op), "command_id": cmd.ID},
	}
	if err := p.producer.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("queueing %s on %q: %w", cmd.Op, cmd.Index, err)
	}
	p.logger.Info("command queued", "command_id", cmd.ID, "index", cmd.Index, "op", cmd.Op)
	return &ingestion.Summary{Index: cmd.Index, Op: cmd.Op, Queued: true, CommandID: cmd.ID}, nil
}
