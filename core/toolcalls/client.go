// Package toolcalls invokes external tools over HTTP and describes the
// tools a session announces to its transport.
package toolcalls

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BranchManager69/dexter-session-core/core/payload"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const errorBodyLimit = 512

// HTTPStatusError is a non-success tool invocation response. Body is
// truncated to keep error chains readable.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("tool call failed with HTTP %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    func() map[string]string
}

type ClientOption func(*Client)

// WithHTTPClient overrides the default instrumented HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithHeaders supplies request headers per call, typically auth.
func WithHeaders(headers func() map[string]string) ClientOption {
	return func(c *Client) { c.headers = headers }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type callRequestBody struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

// Call invokes one named tool and returns its payload unwrapped via the
// normalizer. Non-success HTTP statuses surface as *HTTPStatusError with
// a truncated body.
func (c *Client) Call(ctx context.Context, tool string, args map[string]any) (any, error) {
	ctx, span := tracer.Start(ctx, "call tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", tool))

	requestBodyBytes, err := json.Marshal(callRequestBody{ToolName: tool, Arguments: args})
	if err != nil {
		err = fmt.Errorf("error marshalling tool call body: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		err = fmt.Errorf("error creating HTTP request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.headers != nil {
		for name, value := range c.headers() {
			req.Header.Set(name, value)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error sending tool call request: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		statusErr := &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
		span.RecordError(statusErr)
		span.SetStatus(codes.Error, statusErr.Error())
		return nil, statusErr
	}

	var decoded any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		err = fmt.Errorf("error decoding tool call response: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return payload.Extract(decoded), nil
}
