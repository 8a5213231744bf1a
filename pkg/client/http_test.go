package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/wilhg/agui/pkg/errmodel"
	"github.com/wilhg/agui/pkg/types"
)

func sseBody(events ...string) string {
	var b strings.Builder
	for _, ev := range events {
		b.WriteString("data: ")
		b.WriteString(ev)
		b.WriteString("\n\n")
	}
	return b.String()
}

func streamHandler(t *testing.T, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type=%s", ct)
		}
		var input types.RunAgentInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			t.Errorf("decode input: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(body))
	}
}

func TestHTTPAgentRun(t *testing.T) {
	body := sseBody(
		`{"type":"RUN_STARTED","threadId":"t1","runId":"r1"}`,
		`{"type":"TEXT_MESSAGE_START","messageId":"m1","role":"assistant"}`,
		`{"type":"TEXT_MESSAGE_CONTENT","messageId":"m1","delta":"Hi there"}`,
		`{"type":"TEXT_MESSAGE_END","messageId":"m1"}`,
		`{"type":"RUN_FINISHED","threadId":"t1","runId":"r1"}`,
	)
	srv := httptest.NewServer(streamHandler(t, body))
	defer srv.Close()

	agent, err := NewHTTPAgent(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	res, err := RunAgent(context.Background(), agent, NewRunParams[counterState]().User("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.NewMessages) != 1 || res.NewMessages[0].ContentString() != "Hi there" {
		t.Fatalf("newMessages=%+v", res.NewMessages)
	}
	if res.Result != nil {
		t.Fatalf("result=%s", res.Result)
	}
}

func TestHTTPAgentSendsConfiguredHeaders(t *testing.T) {
	var gotAuth, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCustom = r.Header.Get("X-Tenant")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	agent, err := NewHTTPAgent(srv.URL,
		WithBearerToken("token-1"),
		WithHeader("X-Tenant", "acme"),
		WithAgentID("agent-7"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if agent.AgentID() != "agent-7" {
		t.Fatalf("agentID=%s", agent.AgentID())
	}
	stream, err := agent.Run(context.Background(), &types.RunAgentInput{})
	if err != nil {
		t.Fatal(err)
	}
	stream.Close()
	if gotAuth != "Bearer token-1" {
		t.Fatalf("authorization=%q", gotAuth)
	}
	if gotCustom != "acme" {
		t.Fatalf("x-tenant=%q", gotCustom)
	}
}

func TestHTTPAgentStatusError(t *testing.T) {
	long := strings.Repeat("x", 1000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(long))
	}))
	defer srv.Close()

	agent, err := NewHTTPAgent(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	_, err = agent.Run(context.Background(), &types.RunAgentInput{})
	if err == nil {
		t.Fatal("expected error")
	}
	ce := errmodel.From(err)
	if ce.Category != errmodel.CategoryStatus || ce.Status != http.StatusBadGateway {
		t.Fatalf("error=%+v", ce)
	}
	if len(ce.Message) > 512 {
		t.Fatalf("snippet len=%d", len(ce.Message))
	}
	if !errmodel.Retryable(err) {
		t.Fatal("502 must be retryable")
	}
}

func TestHTTPAgentRejectsBadScheme(t *testing.T) {
	_, err := NewHTTPAgent("ftp://example.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errmodel.IsCategory(err, errmodel.CategoryConfig) {
		t.Fatalf("category: %v", err)
	}
}

func TestHTTPAgentRetry(t *testing.T) {
	var calls atomic.Int32
	body := sseBody(`{"type":"RUN_FINISHED","threadId":"t1","runId":"r1"}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	agent, err := NewHTTPAgent(srv.URL, WithRetry(3))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := RunAgent(context.Background(), agent, NewRunParams[counterState]()); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls=%d", calls.Load())
	}
}

func TestHTTPAgentNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	agent, err := NewHTTPAgent(srv.URL, WithRetry(3))
	if err != nil {
		t.Fatal(err)
	}
	_, err = agent.Run(context.Background(), &types.RunAgentInput{})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("calls=%d, 404 must not retry", calls.Load())
	}
}
