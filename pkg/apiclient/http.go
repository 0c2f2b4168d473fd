package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/goliatone/go-docfill/pkg/model"
)

const maxErrorBody = 512

// Observer receives the outcome of every backend call.
type Observer func(op string, err error, elapsed time.Duration)

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.http = client
		}
	}
}

// WithToken sends a bearer token with every request.
func WithToken(token string) Option {
	return func(c *HTTPClient) {
		c.token = strings.TrimSpace(token)
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *HTTPClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBreaker trips the circuit after failures consecutive failed calls and
// keeps it open for cooldown.
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(c *HTTPClient) {
		c.breakerFailures = failures
		c.breakerCooldown = cooldown
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *HTTPClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a callback for call metrics.
func WithObserver(fn Observer) Option {
	return func(c *HTTPClient) {
		c.observe = fn
	}
}

// HTTPClient implements Client over the backend REST API.
type HTTPClient struct {
	base            *url.URL
	http            *http.Client
	token           string
	limiter         *rate.Limiter
	breaker         *gobreaker.CircuitBreaker[*http.Response]
	breakerFailures uint32
	breakerCooldown time.Duration
	logger          *zap.Logger
	observe         Observer
}

var _ Client = (*HTTPClient)(nil)

// New builds a client for baseURL.
func New(baseURL string, options ...Option) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("apiclient: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}

	c := &HTTPClient{
		base:            base,
		http:            &http.Client{Timeout: 30 * time.Second},
		breakerFailures: 5,
		breakerCooldown: 30 * time.Second,
		logger:          zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}

	failures := c.breakerFailures
	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:    "docfill-backend",
		Timeout: c.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return failures > 0 && counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// client errors do not indicate an unhealthy backend
			var status *StatusError
			return err == nil || (errors.As(err, &status) && status.Code < 500)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("backend circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c, nil
}

func (c *HTTPClient) endpoint(query url.Values, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, segment := range segments {
		escaped[i] = url.PathEscape(segment)
	}
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.Join(escaped, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends the request through the limiter and breaker. The caller owns the
// returned body.
func (c *HTTPClient) do(ctx context.Context, op, method, target string, body any) (resp *http.Response, err error) {
	started := time.Now()
	defer func() {
		if c.observe != nil {
			c.observe(op, err, time.Since(started))
		}
	}()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("apiclient: %s: rate limit: %w", op, err)
		}
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: %s: encode body: %w", op, err)
		}
	}

	resp, err = c.breaker.Execute(func() (*http.Response, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		res, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if res.StatusCode < 200 || res.StatusCode >= 300 {
			defer func() { _ = res.Body.Close() }()
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
			return nil, &StatusError{Op: op, Code: res.StatusCode, Body: strings.TrimSpace(string(snippet))}
		}
		return res, nil
	})
	if err != nil {
		var status *StatusError
		if errors.As(err, &status) {
			return nil, status
		}
		c.logger.Debug("backend call failed", zap.String("op", op), zap.Error(err))
		return nil, fmt.Errorf("apiclient: %s: %w", op, err)
	}
	return resp, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, op, target string, out any) error {
	resp, err := c.do(ctx, op, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("apiclient: %s: decode: %w", op, err)
	}
	return nil
}

// unwrap accepts either a bare payload or one nested under key.
func unwrap(raw json.RawMessage, key string, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err == nil {
			if inner, ok := envelope[key]; ok {
				trimmed = inner
			}
		}
	}
	return json.Unmarshal(trimmed, out)
}

// GetAllTemplates lists every template.
func (c *HTTPClient) GetAllTemplates(ctx context.Context) ([]model.Template, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "list templates", c.endpoint(nil, "templates"), &raw); err != nil {
		return nil, err
	}
	var templates []model.Template
	if err := unwrap(raw, "templates", &templates); err != nil {
		return nil, fmt.Errorf("apiclient: list templates: decode: %w", err)
	}
	return templates, nil
}

// GetTemplate fetches one template record.
func (c *HTTPClient) GetTemplate(ctx context.Context, templateID string) (model.Template, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "get template", c.endpoint(nil, "templates", templateID), &raw); err != nil {
		return model.Template{}, err
	}
	var tpl model.Template
	if err := unwrap(raw, "template", &tpl); err != nil {
		return model.Template{}, fmt.Errorf("apiclient: get template: decode: %w", err)
	}
	return tpl, nil
}

// GetFieldDefinitions fetches the definition map of a template.
func (c *HTTPClient) GetFieldDefinitions(ctx context.Context, templateID string) (model.Definitions, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "get field definitions", c.endpoint(nil, "templates", templateID, "field-definitions"), &raw); err != nil {
		return nil, err
	}
	// the backend may send the map as an encoded string
	var encoded model.JSONString
	if err := unwrap(raw, "field_definitions", &encoded); err != nil {
		return nil, fmt.Errorf("apiclient: get field definitions: decode: %w", err)
	}
	defs := model.Definitions{}
	if strings.TrimSpace(string(encoded)) == "" {
		return defs, nil
	}
	if err := json.Unmarshal([]byte(encoded), &defs); err != nil {
		return nil, fmt.Errorf("apiclient: get field definitions: decode: %w", err)
	}
	return defs, nil
}

// GetConfigurableDataTypes fetches the data type catalog.
func (c *HTTPClient) GetConfigurableDataTypes(ctx context.Context, activeOnly bool) ([]model.ConfigurableDataType, error) {
	query := url.Values{}
	if activeOnly {
		query.Set("active_only", "true")
	}
	var raw json.RawMessage
	if err := c.getJSON(ctx, "list data types", c.endpoint(query, "data-types"), &raw); err != nil {
		return nil, err
	}
	var types []model.ConfigurableDataType
	if err := unwrap(raw, "data_types", &types); err != nil {
		return nil, fmt.Errorf("apiclient: list data types: decode: %w", err)
	}
	return types, nil
}

// GetHTMLPreview returns the raw template HTML with placeholder tokens.
func (c *HTTPClient) GetHTMLPreview(ctx context.Context, templateID string) (string, error) {
	resp, err := c.do(ctx, "get preview", http.MethodGet, c.endpoint(nil, "templates", templateID, "preview"), nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("apiclient: get preview: read: %w", err)
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var envelope struct {
			HTML string `json:"html"`
		}
		if err := json.Unmarshal(data, &envelope); err != nil {
			return "", fmt.Errorf("apiclient: get preview: decode: %w", err)
		}
		return envelope.HTML, nil
	}
	return string(data), nil
}

// UpdateFieldDefinitions replaces the definition map of a template.
func (c *HTTPClient) UpdateFieldDefinitions(ctx context.Context, templateID string, defs model.Definitions) error {
	if defs == nil {
		defs = model.Definitions{}
	}
	body := map[string]any{"field_definitions": defs}
	resp, err := c.do(ctx, "update field definitions", http.MethodPut, c.endpoint(nil, "templates", templateID, "field-definitions"), body)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return nil
}

// ProcessDocument generates a document from data keyed by braced placeholders.
func (c *HTTPClient) ProcessDocument(ctx context.Context, templateID string, data map[string]string) (model.DocumentResult, error) {
	body := map[string]any{"data": data}
	resp, err := c.do(ctx, "process document", http.MethodPost, c.endpoint(nil, "templates", templateID, "process"), body)
	if err != nil {
		return model.DocumentResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	var result model.DocumentResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.DocumentResult{}, fmt.Errorf("apiclient: process document: decode: %w", err)
	}
	if result.DocumentID == "" {
		return model.DocumentResult{}, errors.New("apiclient: process document: missing document id")
	}
	return result, nil
}

// DownloadDocument fetches a generated document in format (docx or pdf).
func (c *HTTPClient) DownloadDocument(ctx context.Context, documentID, format string) ([]byte, error) {
	query := url.Values{}
	if format != "" {
		query.Set("format", format)
	}
	resp, err := c.do(ctx, "download document", http.MethodGet, c.endpoint(query, "documents", documentID, "download"), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("apiclient: download document: read: %w", err)
	}
	return data, nil
}
