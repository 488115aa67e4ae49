package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/index"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion/records"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion/sheet"
	apperrors "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/response"
)

// Queue accepts commands for asynchronous execution. *publisher.Publisher
// implements it.
type Queue interface {
	Enqueue(ctx context.Context, cmd ingestion.Command) (*ingestion.Summary, error)
}

type Handler struct {
	service        *ingestion.Service
	queue          Queue
	maxUploadBytes int64
	logger         *slog.Logger
}

// New creates a Handler. queue may be nil, in which case async=1 requests
// are rejected.
func New(service *ingestion.Service, queue Queue, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		queue:          queue,
		maxUploadBytes: maxUploadBytes,
		logger:         slog.Default().With("component", "ingestion-handler"),
	}
}

// Register mounts the write routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/index/add", h.AddSheet)
	mux.HandleFunc("POST /api/v1/index/add-records", h.AddRecords)
	mux.HandleFunc("POST /api/v1/index/update", h.UpdateSheet)
	mux.HandleFunc("POST /api/v1/index/update-records", h.UpdateRecords)
	mux.HandleFunc("POST /api/v1/index/delete", h.Delete)
	mux.HandleFunc("POST /api/v1/index/drop", h.Drop)
}

func (h *Handler) AddSheet(w http.ResponseWriter, r *http.Request) {
	h.sheetWrite(w, r, ingestion.OpAdd)
}

func (h *Handler) UpdateSheet(w http.ResponseWriter, r *http.Request) {
	h.sheetWrite(w, r, ingestion.OpUpdate)
}

func (h *Handler) sheetWrite(w http.ResponseWriter, r *http.Request, op ingestion.Op) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.fail(w, r, op, badUpload(err))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, op, apperrors.Configf("file is required"))
		return
	}
	defer file.Close()

	cmd := ingestion.Command{Op: op, Index: r.FormValue("indexName"), Language: r.FormValue("isChinese")}
	if cmd.TextColumns, err = intList(r.FormValue("textColumnNums")); err != nil {
		h.fail(w, r, op, err)
		return
	}
	if op == ingestion.OpUpdate {
		if cmd.KeyColumn, err = requiredInt(r.FormValue("keywordColumnNum"), "keywordColumnNum"); err != nil {
			h.fail(w, r, op, err)
			return
		}
	}
	if cmd.Rows, err = sheet.ReadFirst(file); err != nil {
		h.fail(w, r, op, err)
		return
	}
	h.run(w, r, cmd)
}

func (h *Handler) AddRecords(w http.ResponseWriter, r *http.Request) {
	h.recordWrite(w, r, ingestion.OpAdd)
}

func (h *Handler) UpdateRecords(w http.ResponseWriter, r *http.Request) {
	h.recordWrite(w, r, ingestion.OpUpdate)
}

func (h *Handler) recordWrite(w http.ResponseWriter, r *http.Request, op ingestion.Op) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	data := r.FormValue("dataListString")
	if strings.TrimSpace(data) == "" {
		h.fail(w, r, op, apperrors.Configf("dataListString is required"))
		return
	}
	cmd := ingestion.Command{
		Op:         op,
		Index:      r.FormValue("indexName"),
		Language:   r.FormValue("isChinese"),
		Records:    []byte(data),
		TextFields: splitList(r.FormValue("textColumns")),
	}
	if op == ingestion.OpUpdate {
		cmd.KeyField = strings.TrimSpace(r.FormValue("keywordColumn"))
		if cmd.KeyField == "" {
			h.fail(w, r, op, apperrors.Configf("keywordColumn is required"))
			return
		}
	}
	// Parse up front so malformed input is rejected before it is queued.
	if _, err := records.Parse(cmd.Records); err != nil {
		h.fail(w, r, op, err)
		return
	}
	h.run(w, r, cmd)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	field := strings.TrimSpace(r.FormValue("fieldName"))
	if field == "" {
		h.fail(w, r, ingestion.OpDelete, apperrors.Configf("fieldName is required"))
		return
	}
	h.run(w, r, ingestion.Command{
		Op:    ingestion.OpDelete,
		Index: r.FormValue("indexName"),
		Field: field,
		Value: r.FormValue("keyword"),
	})
}

func (h *Handler) Drop(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, ingestion.Command{Op: ingestion.OpDrop, Index: r.FormValue("indexName")})
}

// run executes cmd inline, or queues it when the request asks for async.
func (h *Handler) run(w http.ResponseWriter, r *http.Request, cmd ingestion.Command) {
	ctx := r.Context()
	cmd.Index = strings.TrimSpace(cmd.Index)
	if err := index.ValidateName(cmd.Index); err != nil {
		h.fail(w, r, cmd.Op, err)
		return
	}

	if flag(r.FormValue("async")) {
		if h.queue == nil {
			h.fail(w, r, cmd.Op, apperrors.Configf("asynchronous writes are not enabled"))
			return
		}
		cmd.ID = logger.RequestID(ctx)
		sum, err := h.queue.Enqueue(ctx, cmd)
		if err != nil {
			h.fail(w, r, cmd.Op, err)
			return
		}
		response.OK(w, http.StatusAccepted, sum)
		return
	}

	sum, err := h.service.Apply(ctx, cmd)
	if err != nil {
		h.fail(w, r, cmd.Op, err)
		return
	}
	response.OK(w, http.StatusOK, sum)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op ingestion.Op, err error) {
	logger.FromContext(r.Context()).Warn("write request failed", "op", op, "error", err, "kind", apperrors.Kind(err))
	response.Error(w, err)
}

func badUpload(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.Newf(apperrors.ErrConfiguration, http.StatusRequestEntityTooLarge, "upload exceeds %d bytes", tooLarge.Limit)
	}
	return apperrors.Configf("expected a multipart upload: %v", err)
}

func intList(v string) ([]int, error) {
	var out []int
	for _, part := range splitList(v) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, apperrors.Configf("column number %q is not an integer", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func requiredInt(v, name string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, apperrors.Configf("%s is required", name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.Configf("%s must be an integer, got %q", name, v)
	}
	return n, nil
}

func flag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
