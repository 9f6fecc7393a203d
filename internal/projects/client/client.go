package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bmp-tn/project-admin/internal/projects/domain"
	"github.com/bmp-tn/project-admin/internal/requestctx"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single call to the Project Service.
const DefaultTimeout = 10 * time.Second

// StatusError is returned when the Project Service answers with an
// unexpected status. Body keeps the response payload for diagnostics.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("project service %s returned status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Is makes a 404 match domain.ErrProjectNotFound.
func (e *StatusError) Is(target error) bool {
	return target == domain.ErrProjectNotFound && e.StatusCode == http.StatusNotFound
}

// Options tunes a ProjectClient.
type Options struct {
	Timeout time.Duration
	// RPS caps outbound calls per second; zero disables the limit.
	RPS   float64
	Burst int
	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

// ProjectClient talks JSON to the remote Project Service.
type ProjectClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a client for the service rooted at baseURL (e.g. http://host/api).
func New(baseURL string, opt Options) *ProjectClient {
	if opt.Timeout == 0 {
		opt.Timeout = DefaultTimeout
	}
	hc := opt.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opt.Timeout}
	}

	limit := rate.Inf
	if opt.RPS > 0 {
		limit = rate.Limit(opt.RPS)
	}
	if opt.Burst <= 0 {
		opt.Burst = 1
	}

	return &ProjectClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		limiter:    rate.NewLimiter(limit, opt.Burst),
	}
}

// BaseURL returns the service root the client was built with.
func (c *ProjectClient) BaseURL() string {
	return c.baseURL
}

// List calls GET /projects.
func (c *ProjectClient) List(ctx context.Context) ([]domain.Project, error) {
	var out []domain.Project
	if err := c.do(ctx, "list", http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByArtisan calls GET /projects/artisan/{artisanId}.
func (c *ProjectClient) ListByArtisan(ctx context.Context, artisanID int64) ([]domain.Project, error) {
	var out []domain.Project
	path := "/projects/artisan/" + strconv.FormatInt(artisanID, 10)
	if err := c.do(ctx, "list_by_artisan", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get calls GET /projects/{id}. A 404 yields domain.ErrProjectNotFound.
func (c *ProjectClient) Get(ctx context.Context, id int64) (*domain.Project, error) {
	var out domain.Project
	if err := c.do(ctx, "get", http.MethodGet, projectPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create calls POST /projects.
func (c *ProjectClient) Create(ctx context.Context, req domain.CreateProjectRequest) (*domain.Project, error) {
	var out domain.Project
	if err := c.do(ctx, "create", http.MethodPost, "/projects", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update calls PUT /projects/{id}.
func (c *ProjectClient) Update(ctx context.Context, id int64, req domain.UpdateProjectRequest) (*domain.Project, error) {
	var out domain.Project
	if err := c.do(ctx, "update", http.MethodPut, projectPath(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateStatus calls PATCH /projects/{id}/status.
func (c *ProjectClient) UpdateStatus(ctx context.Context, id int64, status domain.Status) (*domain.Project, error) {
	var out domain.Project
	body := domain.UpdateStatusRequest{Status: status}
	if err := c.do(ctx, "update_status", http.MethodPatch, projectPath(id)+"/status", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete calls DELETE /projects/{id}.
func (c *ProjectClient) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, "delete", http.MethodDelete, projectPath(id), nil, nil)
}

// AddUpdate calls POST /projects/{id}/updates.
func (c *ProjectClient) AddUpdate(ctx context.Context, id int64, req domain.CreateProgressUpdateRequest) (*domain.ProgressUpdate, error) {
	var out domain.ProgressUpdate
	if err := c.do(ctx, "add_update", http.MethodPost, projectPath(id)+"/updates", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUpdates calls GET /projects/{id}/updates.
func (c *ProjectClient) ListUpdates(ctx context.Context, id int64) ([]domain.ProgressUpdate, error) {
	var out []domain.ProgressUpdate
	if err := c.do(ctx, "list_updates", http.MethodGet, projectPath(id)+"/updates", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ping checks that the service answers at all; any HTTP response counts.
func (c *ProjectClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/projects", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("project service unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}

func projectPath(id int64) string {
	return "/projects/" + strconv.FormatInt(id, 10)
}

func (c *ProjectClient) do(ctx context.Context, op, method, path string, in, out any) error {
	start := time.Now()
	err := c.roundTrip(ctx, op, method, path, in, out)
	recordCall(time.Since(start), err)
	return err
}

func (c *ProjectClient) roundTrip(ctx context.Context, op, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit: %w", op, err)
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid := requestctx.RequestID(ctx); rid != "" {
		req.Header.Set("X-Request-Id", rid)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: call project service: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: unmarshal response: %w", op, err)
	}
	return nil
}
