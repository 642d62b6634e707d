package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"job-listings/internal/domain"
	"job-listings/internal/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultBasePath = "/api/jobs"
	defaultTimeout  = 15 * time.Second
	maxBodyBytes    = 1 << 20
)

// ClientConfig defines the jobs API client settings.
type ClientConfig struct {
	BaseURL    string
	BasePath   string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// JobsClient maps the logical posting operations onto the REST resource and
// normalizes every outcome into a typed result or a typed error.
type JobsClient struct {
	baseURL  *url.URL
	basePath string
	client   *http.Client
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewJobsClient instantiates a jobs API client.
func NewJobsClient(cfg ClientConfig, logger *slog.Logger) (*JobsClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("jobs api: base url is required")
	}
	u, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("jobs api: parse base url: %w", err)
	}

	basePath := cfg.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &JobsClient{
		baseURL:  u,
		basePath: basePath,
		client:   httpClient,
		logger:   logger.With("component", "jobs-client"),
		tracer:   otel.Tracer("job-listings-client"),
	}, nil
}

// List fetches one page. page and size are always sent; q only when non-blank.
func (c *JobsClient) List(ctx context.Context, req domain.PageRequest) (*domain.Page, error) {
	values := url.Values{}
	values.Set("page", strconv.Itoa(req.Page))
	values.Set("size", strconv.Itoa(req.Size))
	if strings.TrimSpace(req.Query) != "" {
		values.Set("q", req.Query)
	}

	var page domain.Page
	if err := c.do(ctx, "list", http.MethodGet, c.resourceURL("", values), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get fetches a single posting.
func (c *JobsClient) Get(ctx context.Context, id string) (*domain.JobPosting, error) {
	if id == "" {
		return nil, fmt.Errorf("jobs api: id is required")
	}
	var posting domain.JobPosting
	if err := c.do(ctx, "get", http.MethodGet, c.resourceURL(id, nil), nil, &posting); err != nil {
		return nil, err
	}
	return &posting, nil
}

// Create sends a draft and returns the persisted posting with id and postedAt.
func (c *JobsClient) Create(ctx context.Context, draft domain.Draft) (*domain.JobPosting, error) {
	var posting domain.JobPosting
	if err := c.do(ctx, "create", http.MethodPost, c.resourceURL("", nil), draft, &posting); err != nil {
		return nil, err
	}
	return &posting, nil
}

// Update replaces all mutable fields of the posting with the draft.
func (c *JobsClient) Update(ctx context.Context, id string, draft domain.Draft) (*domain.JobPosting, error) {
	if id == "" {
		return nil, fmt.Errorf("jobs api: update requires an id")
	}
	var posting domain.JobPosting
	if err := c.do(ctx, "update", http.MethodPut, c.resourceURL(id, nil), draft, &posting); err != nil {
		return nil, err
	}
	return &posting, nil
}

// Delete removes a posting. No content and a JSON body are both success.
func (c *JobsClient) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("jobs api: delete requires an id")
	}
	return c.do(ctx, "delete", http.MethodDelete, c.resourceURL(id, nil), nil, nil)
}

func (c *JobsClient) resourceURL(id string, values url.Values) string {
	u := *c.baseURL
	u.Path = path.Join("/", u.Path, c.basePath)
	if id != "" {
		u.Path = path.Join(u.Path, id)
	}
	u.RawQuery = values.Encode()
	return u.String()
}

// do performs one call and classifies the outcome for metrics and tracing.
// out may be nil when the response body is not needed.
func (c *JobsClient) do(ctx context.Context, op, method, target string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, "client."+op, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", target),
	))
	defer span.End()

	err := c.roundTrip(ctx, method, target, body, out, span)
	outcome := classify(err)
	metrics.ClientRequestsTotal.WithLabelValues(op, outcome).Inc()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		c.logger.Debug("jobs api call failed", "op", op, "outcome", outcome, "error", err)
		return err
	}
	c.logger.Debug("jobs api call succeeded", "op", op)
	return nil
}

func (c *JobsClient) roundTrip(ctx context.Context, method, target string, body, out any, span trace.Span) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("jobs api: encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("jobs api: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("jobs api: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("jobs api: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return normalizeError(resp, raw)
	}
	return decodeSuccess(resp, raw, out)
}

// normalizeError turns a non-2xx response into *domain.FieldErrors when the
// body is a flat JSON object of strings and *domain.MessageError otherwise.
func normalizeError(resp *http.Response, raw []byte) error {
	text := strings.TrimSpace(string(raw))
	if isJSON(resp, raw) {
		if fe, ok := domain.ParseFieldErrors(resp.StatusCode, raw); ok {
			return fe
		}
		var envelope struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &envelope); err == nil {
			if envelope.Message != "" {
				return &domain.MessageError{Status: resp.StatusCode, Message: envelope.Message}
			}
			if envelope.Error != "" {
				return &domain.MessageError{Status: resp.StatusCode, Message: envelope.Error}
			}
		}
	}
	if text == "" {
		text = http.StatusText(resp.StatusCode)
		if text == "" {
			text = resp.Status
		}
	}
	return &domain.MessageError{Status: resp.StatusCode, Message: text}
}

// NonJSONResponseError is a successful response whose body could not be
// decoded as JSON. Body holds the text exactly as received.
type NonJSONResponseError struct {
	Status      int
	ContentType string
	Body        string
}

func (e *NonJSONResponseError) Error() string {
	return fmt.Sprintf("jobs api: unexpected non-JSON response: %s", strings.TrimSpace(e.Body))
}

// decodeSuccess parses JSON bodies into out. A body that is not JSON cannot
// become a typed result, so it is surfaced verbatim in an error.
func decodeSuccess(resp *http.Response, raw []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		if out != nil {
			return fmt.Errorf("jobs api: empty %s response", resp.Status)
		}
		return nil
	}
	if !isJSON(resp, raw) {
		return &NonJSONResponseError{
			Status:      resp.StatusCode,
			ContentType: resp.Header.Get("Content-Type"),
			Body:        string(raw),
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("jobs api: decode response: %w", err)
	}
	return nil
}

// isJSON trusts the declared media type and falls back to sniffing bodies
// that arrive without one.
func isJSON(resp *http.Response, raw []byte) bool {
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err == nil {
			return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
		}
	}
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed)
}

func classify(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	var fe *domain.FieldErrors
	if errors.As(err, &fe) {
		return metrics.OutcomeFieldErrors
	}
	var me *domain.MessageError
	if errors.As(err, &me) {
		return metrics.OutcomeMessage
	}
	return metrics.OutcomeTransport
}
