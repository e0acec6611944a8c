// Package remote implements the store ports against the REST surface served
// by cmd/expenses-api (or any json-server compatible service).
package remote

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

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/store"
)

const (
	expensesPath   = "/expenses"
	categoriesPath = "/categories"

	// maxErrorBody caps how much of a failed response is quoted in errors.
	maxErrorBody = 512
)

// Client is an HTTP implementation of store.Store.
type Client struct {
	baseURL string
	http    *http.Client
	ids     *core.IDGenerator
	logger  *log.Logger
}

var _ store.Store = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentRemote) }
}

func WithIDGenerator(g *core.IDGenerator) Option {
	return func(c *Client) { c.ids = g }
}

// New returns a client rooted at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		ids:     core.NewIDGenerator(),
		logger:  log.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	var out []core.Expense
	if err := c.do(ctx, http.MethodGet, expensesPath, nil, &out); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if out == nil {
		out = []core.Expense{}
	}
	for _, e := range out {
		c.ids.Seed(e.ID)
	}
	return out, nil
}

// createExpenseRequest carries a client-generated time-derived id so that
// services which accept caller ids keep the creation timestamp. Services
// that assign their own id are free to ignore it.
type createExpenseRequest struct {
	ID string `json:"id"`
	core.NewExpense
}

func (c *Client) CreateExpense(ctx context.Context, in core.NewExpense) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	var out core.Expense
	body := createExpenseRequest{ID: c.ids.Next(), NewExpense: in}
	if err := c.do(ctx, http.MethodPost, expensesPath, body, &out); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	if out.ID == "" {
		return core.Expense{}, fmt.Errorf("create expense: %w: response without id", store.ErrTransport)
	}
	return out, nil
}

// DeleteExpense fails on any non-success status, including 404.
func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, expensesPath+"/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return nil
}

// ListCategories never fails on transport errors: they are logged and an
// empty list is returned so the expense view stays usable.
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var out []core.Category
	if err := c.do(ctx, http.MethodGet, categoriesPath, nil, &out); err != nil {
		c.logger.WarnContext(ctx, "Failed to fetch categories",
			log.FieldError, err.Error(),
			log.FieldOperation, log.OpList)
		return []core.Category{}, nil
	}
	if out == nil {
		out = []core.Category{}
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	name, err := core.NormalizeCategoryName(name)
	if err != nil {
		return core.Category{}, err
	}
	var out core.Category
	if err := c.do(ctx, http.MethodPost, categoriesPath, map[string]string{"name": name}, &out); err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return out, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, categoriesPath+"/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	return nil
}

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	if e.Body != "" {
		msg += " - " + e.Body
	}
	return msg
}

// Is maps 404 onto store.ErrNotFound and everything else onto
// store.ErrTransport.
func (e *StatusError) Is(target error) bool {
	if target == store.ErrNotFound {
		return e.Code == http.StatusNotFound
	}
	return target == store.ErrTransport
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrTransport, err)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "Remote call",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatusCode, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty response body", store.ErrTransport)
		}
		return fmt.Errorf("%w: decode response: %v", store.ErrTransport, err)
	}
	return nil
}
