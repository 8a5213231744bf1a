package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/wilhg/agui/pkg/client"
	"github.com/wilhg/agui/pkg/events"
	"github.com/wilhg/agui/pkg/otel"
	"github.com/wilhg/agui/pkg/types"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	var showVersion bool
	var url, token, prompt string
	var trace bool

	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.StringVar(&url, "url", getEnv("AGUI_URL", "http://127.0.0.1:8000/"), "agent endpoint url")
	flag.StringVar(&token, "token", os.Getenv("AGUI_TOKEN"), "bearer token")
	flag.StringVar(&prompt, "prompt", "", "user message to send")
	flag.BoolVar(&trace, "trace", false, "print spans to stdout")
	flag.Parse()

	if showVersion {
		fmt.Printf("agui %s (commit=%s, date=%s)\n", version, commit, date)
		return
	}
	if prompt == "" {
		prompt = strings.Join(flag.Args(), " ")
	}
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: agui -url <endpoint> -prompt <message>")
		os.Exit(2)
	}

	ctx := context.Background()
	shutdown, err := otel.Init(ctx, otel.Config{ServiceName: "agui", ServiceVersion: version, UseStdout: trace})
	if err != nil {
		fmt.Fprintf(os.Stderr, "otel init: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = shutdown(ctx) }()

	opts := []client.HTTPOption{}
	if token != "" {
		opts = append(opts, client.WithBearerToken(token))
	}
	agent, err := client.NewHTTPAgent(url, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "agent: %v\n", err)
		os.Exit(1)
	}

	params := client.NewRunParams[map[string]any]().User(prompt)
	res, err := client.RunAgent(ctx, agent, params, &printer{})
	if err != nil {
		slog.Error("run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Println()
	if len(res.Result) > 0 {
		fmt.Printf("result: %s\n", res.Result)
	}
}

// printer streams assistant text to stdout as it arrives.
type printer struct {
	client.BaseSubscriber[map[string]any]
}

func (p *printer) OnTextMessageContent(_ context.Context, ev *events.TextMessageContentEvent, _ string, _ client.SubscriberParams[map[string]any]) (client.StateMutation[map[string]any], error) {
	fmt.Print(ev.Delta)
	return client.StateMutation[map[string]any]{}, nil
}

func (p *printer) OnToolCallStart(_ context.Context, ev *events.ToolCallStartEvent, _ client.SubscriberParams[map[string]any]) (client.StateMutation[map[string]any], error) {
	fmt.Printf("\n[tool %s: %s]\n", ev.ToolCallID, ev.ToolCallName)
	return client.StateMutation[map[string]any]{}, nil
}

func (p *printer) OnNewMessage(_ context.Context, msg *types.Message, _ client.SubscriberParams[map[string]any]) error {
	slog.Debug("new message", slog.String("id", string(msg.ID)), slog.String("role", string(msg.Role)))
	return nil
}

func getEnv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
