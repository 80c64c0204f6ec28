// Package client is a typed HTTP client for the student records API.
//
// List results are cached per search term. Any successful create, update or
// delete drops the whole cache so the next read goes back to the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"student-records/internal/student"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	cache map[string][]student.Student
	gen   uint64 // bumped by Invalidate; a List started under an older gen is not cached
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cache: make(map[string][]student.Student),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns all students, or those matching search when it is not blank.
// The returned slice is the caller's own copy.
func (c *Client) List(ctx context.Context, search string) ([]student.Student, error) {
	key := strings.TrimSpace(search)

	c.mu.Lock()
	cached, ok := c.cache[key]
	gen := c.gen
	c.mu.Unlock()
	if ok {
		return slices.Clone(cached), nil
	}

	path := "/api/students"
	if key != "" {
		path += "?search=" + url.QueryEscape(key)
	}

	var students []student.Student
	if err := c.do(ctx, http.MethodGet, path, nil, &students); err != nil {
		return nil, err
	}
	if students == nil {
		students = []student.Student{}
	}

	c.mu.Lock()
	if c.gen == gen {
		c.cache[key] = slices.Clone(students)
	}
	c.mu.Unlock()

	return students, nil
}

func (c *Client) Get(ctx context.Context, id int) (*student.Student, error) {
	var s student.Student
	if err := c.do(ctx, http.MethodGet, studentPath(id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) Create(ctx context.Context, req student.CreateStudentRequest) (*student.Student, error) {
	var s student.Student
	if err := c.do(ctx, http.MethodPost, "/api/students", req, &s); err != nil {
		return nil, err
	}
	c.Invalidate()
	return &s, nil
}

func (c *Client) Update(ctx context.Context, id int, req student.UpdateStudentRequest) (*student.Student, error) {
	var s student.Student
	if err := c.do(ctx, http.MethodPut, studentPath(id), req, &s); err != nil {
		return nil, err
	}
	c.Invalidate()
	return &s, nil
}

func (c *Client) Delete(ctx context.Context, id int) error {
	if err := c.do(ctx, http.MethodDelete, studentPath(id), nil, nil); err != nil {
		return err
	}
	c.Invalidate()
	return nil
}

// Invalidate drops every cached list.
func (c *Client) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	clear(c.cache)
}

func studentPath(id int) string {
	return "/api/students/" + strconv.Itoa(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
