// internal/api/http/posting_handler.go
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"job-listings/internal/domain"
	"job-listings/internal/metrics"
	"job-listings/internal/usecase"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBasePath is the root of the job postings resource.
const DefaultBasePath = "/api/jobs"

// PostingHandler serves the job postings REST resource.
type PostingHandler struct {
	service  *usecase.PostingService
	basePath string
	logger   *slog.Logger
	validate *validator.Validate
	tracer   trace.Tracer
}

// NewPostingHandler creates a new PostingHandler mounted at basePath.
func NewPostingHandler(service *usecase.PostingService, basePath string, logger *slog.Logger) *PostingHandler {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	return &PostingHandler{
		service:  service,
		basePath: "/" + strings.Trim(basePath, "/"),
		logger:   logger.With("component", "posting-handler"),
		validate: newValidator(),
		tracer:   otel.Tracer("job-listings-api"),
	}
}

// A helper struct to capture the status code
type instrumentedResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *instrumentedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// RegisterRoutes registers the posting routes on mux.
func (h *PostingHandler) RegisterRoutes(mux *http.ServeMux) {
	baseHandler := http.HandlerFunc(h.handlePostings)

	instrumentedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := h.basePath
		if id := h.postingID(r.URL.Path); id != "" {
			path = h.basePath + "/{id}"
		}

		ctx, span := h.tracer.Start(r.Context(), "HTTP "+r.Method+" "+path, trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
		))
		defer span.End()

		r = r.WithContext(ctx)

		iw := &instrumentedResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		baseHandler.ServeHTTP(iw, r)

		metrics.HttpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(iw.statusCode)).Inc()

		span.SetAttributes(attribute.Int("http.status_code", iw.statusCode))
		if iw.statusCode >= 500 {
			span.SetStatus(codes.Error, "Server Error")
		}
	})

	mux.Handle(h.basePath, instrumentedHandler)
	mux.Handle(h.basePath+"/", instrumentedHandler)
}

// postingID extracts {id} from /{base}/{id}. It returns "" for the collection
// and for deeper paths.
func (h *PostingHandler) postingID(urlPath string) string {
	rest := strings.TrimPrefix(urlPath, h.basePath)
	rest = strings.Trim(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}

// handlePostings dispatches on method and on collection vs item path.
func (h *PostingHandler) handlePostings(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, h.basePath), "/")
	if strings.Contains(rest, "/") {
		http.NotFound(w, r)
		return
	}
	id := rest

	switch {
	case id == "" && r.Method == http.MethodGet:
		h.handleListPostings(w, r)
	case id == "" && r.Method == http.MethodPost:
		h.handleCreatePosting(w, r)
	case id != "" && r.Method == http.MethodGet:
		h.handleGetPosting(w, r, id)
	case id != "" && r.Method == http.MethodPut:
		h.handleUpdatePosting(w, r, id)
	case id != "" && r.Method == http.MethodDelete:
		h.handleDeletePosting(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleListPostings serves GET /{base}?page=&size=&q=
func (h *PostingHandler) handleListPostings(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.ListPostings")
	defer span.End()

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	size, _ := strconv.Atoi(query.Get("size"))
	req := domain.PageRequest{Page: page, Size: size, Query: query.Get("q")}.Normalize()
	span.SetAttributes(attribute.Int("page", req.Page), attribute.Int("page_size", req.Size))

	result, err := h.service.List(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, "Failed to list postings from service")
		span.RecordError(err)
		h.logger.Error("error listing postings", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *PostingHandler) handleCreatePosting(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "handler.CreatePosting")
	defer span.End()

	req, ok := h.decodeAndValidate(w, r, span)
	if !ok {
		return
	}

	posting, err := h.service.Create(ctx, req.ToDraft())
	if err != nil {
		span.SetStatus(codes.Error, "Failed to create posting in service")
		span.RecordError(err)
		h.logger.Error("error creating posting", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, posting)
}

func (h *PostingHandler) handleUpdatePosting(w http.ResponseWriter, r *http.Request, id string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.UpdatePosting")
	defer span.End()
	span.SetAttributes(attribute.String("posting.id", id))

	req, ok := h.decodeAndValidate(w, r, span)
	if !ok {
		return
	}

	posting, err := h.service.Update(ctx, id, req.ToDraft())
	if err != nil {
		h.writeServiceError(w, span, "update", id, err)
		return
	}

	writeJSON(w, http.StatusOK, posting)
}

func (h *PostingHandler) handleDeletePosting(w http.ResponseWriter, r *http.Request, id string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.DeletePosting")
	defer span.End()
	span.SetAttributes(attribute.String("posting.id", id))

	if err := h.service.Delete(ctx, id); err != nil {
		h.writeServiceError(w, span, "delete", id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PostingHandler) handleGetPosting(w http.ResponseWriter, r *http.Request, id string) {
	ctx, span := h.tracer.Start(r.Context(), "handler.GetPosting")
	defer span.End()
	span.SetAttributes(attribute.String("posting.id", id))

	posting, err := h.service.Get(ctx, id)
	if err != nil {
		h.writeServiceError(w, span, "get", id, err)
		return
	}

	writeJSON(w, http.StatusOK, posting)
}

// decodeAndValidate reads the request body. On failure it writes a 400: plain
// text for a malformed body, a JSON field map for invalid fields.
func (h *PostingHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, span trace.Span) (*SavePostingRequest, bool) {
	var req SavePostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		span.SetStatus(codes.Error, "Failed to decode request body")
		span.RecordError(err)
		http.Error(w, "Malformed request body: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}

	if fe := validateRequest(h.validate, http.StatusBadRequest, &req); fe != nil {
		span.SetStatus(codes.Error, "Validation failed")
		span.RecordError(fe)
		writeJSON(w, http.StatusBadRequest, fe)
		return nil, false
	}
	return &req, true
}

func (h *PostingHandler) writeServiceError(w http.ResponseWriter, span trace.Span, op, id string, err error) {
	span.RecordError(err)
	if errors.Is(err, domain.ErrPostingNotFound) {
		span.SetStatus(codes.Error, "Posting not found")
		h.logger.Warn("posting not found", "op", op, "posting_id", id)
		http.Error(w, "Job posting "+id+" not found", http.StatusNotFound)
		return
	}
	span.SetStatus(codes.Error, "Failed to "+op+" posting in service")
	h.logger.Error("error in posting service", "op", op, "posting_id", id, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
