package ingestion

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion/records"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/journal"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/cursor"
	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/metrics"
)

// Service maps incoming rows or records into documents and runs them
// through a write session. Cursors and journal are optional.
type Service struct {
	indexes *index.Manager
	cursors cursor.Store
	journal *journal.Journal
	metrics *metrics.Metrics
}

func NewService(indexes *index.Manager, cursors cursor.Store, j *journal.Journal, m *metrics.Metrics) *Service {
	return &Service{
		indexes: indexes,
		cursors: cursors,
		journal: j,
		metrics: m,
	}
}

// AddRows indexes every data row of a header-first table.
func (s *Service) AddRows(ctx context.Context, name string, lang index.Language, rows [][]string, textColumns []int) (*Summary, error) {
	start := time.Now()
	docs, err := index.MapRows(rows, textColumns)
	if err == nil {
		err = s.indexes.AddAll(ctx, name, lang, docs)
	}
	return s.finish(ctx, OpAdd, name, len(docs), err, start)
}

// AddRecords indexes key-value records.
func (s *Service) AddRecords(ctx context.Context, name string, lang index.Language, recs []*index.Record, textFields []string) (*Summary, error) {
	start := time.Now()
	docs := index.MapRecords(recs, textFields)
	err := s.indexes.AddAll(ctx, name, lang, docs)
	return s.finish(ctx, OpAdd, name, len(docs), err, start)
}

// UpdateRows replaces documents by the value of the header column at
// keyColumn.
func (s *Service) UpdateRows(ctx context.Context, name string, lang index.Language, rows [][]string, textColumns []int, keyColumn int) (*Summary, error) {
	start := time.Now()
	keyField, err := index.KeyColumn(rows, keyColumn)
	if err != nil {
		return s.finish(ctx, OpUpdate, name, 0, err, start)
	}
	docs, err := index.MapRows(rows, textColumns)
	if err == nil {
		err = s.indexes.UpdateAll(ctx, name, lang, keyField, docs)
	}
	return s.finish(ctx, OpUpdate, name, len(docs), err, start)
}

// UpdateRecords replaces documents by the value of keyField.
func (s *Service) UpdateRecords(ctx context.Context, name string, lang index.Language, recs []*index.Record, textFields []string, keyField string) (*Summary, error) {
	start := time.Now()
	docs := index.MapRecords(recs, textFields)
	err := s.indexes.UpdateAll(ctx, name, lang, keyField, docs)
	return s.finish(ctx, OpUpdate, name, len(docs), err, start)
}

// Delete removes documents whose field holds exactly value.
func (s *Service) Delete(ctx context.Context, name, field, value string) (*Summary, error) {
	start := time.Now()
	n, err := s.indexes.DeleteWhere(ctx, name, field, value)
	return s.finish(ctx, OpDelete, name, n, err, start)
}

// Drop removes the whole index and the scroll positions kept for it. A
// failure to clear cursors is logged; stale cursors expire on their own.
func (s *Service) Drop(ctx context.Context, name string) (*Summary, error) {
	start := time.Now()
	if err := index.ValidateName(name); err != nil {
		return s.finish(ctx, OpDrop, name, 0, err, start)
	}
	existed, err := s.indexes.Drop(ctx, name)
	if err == nil && s.cursors != nil {
		if _, cerr := s.cursors.ClearIndex(ctx, name); cerr != nil {
			logger.FromContext(ctx).Warn("clearing cursors after drop", "index", name, "error", cerr)
		}
	}
	n := 0
	if existed {
		n = 1
	}
	return s.finish(ctx, OpDrop, name, n, err, start)
}

// Apply executes a queued command.
func (s *Service) Apply(ctx context.Context, cmd Command) (*Summary, error) {
	lang, err := index.ParseLanguage(cmd.Language)
	if err != nil {
		return nil, err
	}
	switch cmd.Op {
	case OpAdd, OpUpdate:
		if len(cmd.Rows) > 0 {
			if cmd.Op == OpAdd {
				return s.AddRows(ctx, cmd.Index, lang, cmd.Rows, cmd.TextColumns)
			}
			return s.UpdateRows(ctx, cmd.Index, lang, cmd.Rows, cmd.TextColumns, cmd.KeyColumn)
		}
		recs, err := records.Parse(cmd.Records)
		if err != nil {
			return nil, err
		}
		if cmd.Op == OpAdd {
			return s.AddRecords(ctx, cmd.Index, lang, recs, cmd.TextFields)
		}
		return s.UpdateRecords(ctx, cmd.Index, lang, recs, cmd.TextFields, cmd.KeyField)
	case OpDelete:
		return s.Delete(ctx, cmd.Index, cmd.Field, cmd.Value)
	case OpDrop:
		return s.Drop(ctx, cmd.Index)
	default:
		return nil, apperrors.Configf("unknown op %q", cmd.Op)
	}
}

func (s *Service) finish(ctx context.Context, op Op, name string, docs int, err error, start time.Time) (*Summary, error) {
	elapsed := time.Since(start)
	status := "ok"
	if err != nil {
		status = "error"
	}
	if s.metrics != nil {
		s.metrics.WriteSessionsTotal.WithLabelValues(string(op), status).Inc()
		s.metrics.WriteLatency.WithLabelValues(string(op)).Observe(elapsed.Seconds())
		if err == nil && op != OpDrop {
			s.metrics.DocsWrittenTotal.WithLabelValues(string(op)).Add(float64(docs))
		}
	}
	if jerr := s.journal.Record(ctx, journal.Entry{Index: name, Op: string(op), Documents: docs, Err: err, Duration: elapsed}); jerr != nil {
		logger.FromContext(ctx).Warn("journal write failed", "index", name, "op", op, "error", jerr)
	}

	log := logger.FromContext(ctx).With("component", "ingestion", "index", name, "op", op)
	if err != nil {
		log.Error("write failed", "error", err, "duration_ms", elapsed.Milliseconds())
		return nil, err
	}
	log.Info("write completed", "documents", docs, "duration_ms", elapsed.Milliseconds())
	return &Summary{Index: name, Op: op, Documents: docs}, nil
}
