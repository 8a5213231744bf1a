package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wilhg/agui/pkg/errmodel"
	"github.com/wilhg/agui/pkg/events"
	"github.com/wilhg/agui/pkg/sse"
	"github.com/wilhg/agui/pkg/types"
)

// HTTPAgent runs agents over a single HTTP POST whose response body is an
// SSE-framed event stream.
type HTTPAgent struct {
	client   *http.Client
	baseURL  *url.URL
	header   http.Header
	agentID  types.AgentID
	maxTries uint
}

// HTTPOption configures an HTTPAgent at construction time.
type HTTPOption func(*HTTPAgent)

// WithHeader sets a request header sent with every run.
func WithHeader(name, value string) HTTPOption {
	return func(a *HTTPAgent) { a.header.Set(name, value) }
}

// WithBearerToken sets the Authorization header.
func WithBearerToken(token string) HTTPOption {
	return func(a *HTTPAgent) { a.header.Set("Authorization", "Bearer "+token) }
}

// WithHTTPClient replaces the default client. The caller keeps responsibility
// for transport instrumentation.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(a *HTTPAgent) { a.client = c }
}

// WithTimeout bounds the whole request including the streamed body read.
func WithTimeout(d time.Duration) HTTPOption {
	return func(a *HTTPAgent) { a.client.Timeout = d }
}

// WithAgentID sets the agent identifier reported by AgentID.
func WithAgentID(id types.AgentID) HTTPOption {
	return func(a *HTTPAgent) { a.agentID = id }
}

// WithRetry retries the initial POST up to maxTries attempts with exponential
// backoff when the failure is retryable per errmodel.Retryable. The stream is
// never retried mid-run.
func WithRetry(maxTries uint) HTTPOption {
	return func(a *HTTPAgent) { a.maxTries = maxTries }
}

// NewHTTPAgent returns an agent posting runs to rawURL. The URL scheme must
// be http or https.
func NewHTTPAgent(rawURL string, opts ...HTTPOption) (*HTTPAgent, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errmodel.Config("invalid url " + rawURL + ": " + err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errmodel.Config("unsupported url scheme: " + u.Scheme)
	}
	a := &HTTPAgent{
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		baseURL: u,
		header:  make(http.Header),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// AgentID implements Agent.
func (a *HTTPAgent) AgentID() types.AgentID { return a.agentID }

// Run implements Agent: it posts the run input and returns the response body
// as an event stream. Non-2xx responses surface as status errors carrying a
// snippet of the body.
func (a *HTTPAgent) Run(ctx context.Context, input *types.RunAgentInput) (EventStream, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, errmodel.JSON(err)
	}
	if a.maxTries > 1 {
		return backoff.Retry(ctx, func() (EventStream, error) {
			stream, err := a.post(ctx, body)
			if err != nil && !errmodel.Retryable(err) {
				return nil, backoff.Permanent(err)
			}
			return stream, err
		}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(a.maxTries))
	}
	return a.post(ctx, body)
}

func (a *HTTPAgent) post(ctx context.Context, body []byte) (EventStream, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, errmodel.Transport(errmodel.CodeRequest, err)
	}
	for name, values := range a.header {
		req.Header[name] = values
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		resp.Body.Close()
		return nil, errmodel.Status(resp.StatusCode, string(snippet))
	}
	return &httpStream{reader: sse.NewReader(resp.Body), body: resp.Body}, nil
}

// classifyTransport maps a client.Do failure onto a transport code: timeouts
// keep their identity, everything else counts as a connect failure.
func classifyTransport(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return errmodel.Transport(errmodel.CodeTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errmodel.Transport(errmodel.CodeTimeout, err)
	}
	return errmodel.Transport(errmodel.CodeConnect, err)
}

// httpStream adapts the SSE frame reader into an EventStream.
type httpStream struct {
	reader *sse.Reader
	body   io.Closer
}

func (s *httpStream) Next(ctx context.Context) (events.Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, errmodel.Transport(errmodel.CodeStream, err)
		}
		frame, err := s.reader.Next()
		if err != nil {
			return nil, err
		}
		// Frames without a payload (comments, keep-alives) carry no event.
		if frame.Data == "" {
			continue
		}
		ev, err := events.Decode([]byte(frame.Data))
		if err != nil {
			return nil, err
		}
		return ev, nil
	}
}

func (s *httpStream) Close() error { return s.body.Close() }
