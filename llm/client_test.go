package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// mockAdapter is a scriptable ProviderAdapter.
type mockAdapter struct {
	name     string
	response *Response
	err      error
	calls    int
	lastReq  Request
	closed   bool
}

func (m *mockAdapter) Name() string { return m.name }

func (m *mockAdapter) Complete(_ context.Context, req Request) (*Response, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.response != nil {
		return m.response, nil
	}
	return &Response{ID: "resp_mock", Model: req.Model, Provider: m.name, Content: "ok"}, nil
}

func (m *mockAdapter) Close() error {
	m.closed = true
	return nil
}

func TestClientRoutesToExplicitProvider(t *testing.T) {
	openai := &mockAdapter{name: "openai"}
	anthropic := &mockAdapter{name: "anthropic"}
	c := NewClient(
		WithProvider("openai", openai),
		WithProvider("anthropic", anthropic),
	)

	_, err := c.Complete(context.Background(), Request{Provider: "anthropic", Model: "claude-sonnet-4-5"})
	if err != nil {
		t.Fatal(err)
	}
	if anthropic.calls != 1 || openai.calls != 0 {
		t.Errorf("calls = openai:%d anthropic:%d, want 0/1", openai.calls, anthropic.calls)
	}
}

func TestClientSingleProviderBecomesDefault(t *testing.T) {
	adapter := &mockAdapter{name: "openai"}
	c := NewClient(WithProvider("openai", adapter))

	resp, err := c.Complete(context.Background(), Request{Model: "anything"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q", resp.Content)
	}
	if adapter.calls != 1 {
		t.Errorf("calls = %d, want 1", adapter.calls)
	}
}

func TestClientInfersProviderFromModel(t *testing.T) {
	openai := &mockAdapter{name: "openai"}
	anthropic := &mockAdapter{name: "anthropic"}
	c := NewClient(
		WithProvider("openai", openai),
		WithProvider("anthropic", anthropic),
	)

	_, err := c.Complete(context.Background(), Request{Model: "claude-sonnet-4-5"})
	if err != nil {
		t.Fatal(err)
	}
	if anthropic.calls != 1 {
		t.Errorf("anthropic calls = %d, want 1 via model inference", anthropic.calls)
	}
}

func TestClientUnknownProviderError(t *testing.T) {
	c := NewClient(WithProvider("openai", &mockAdapter{name: "openai"}), WithDefaultProvider("openai"))

	_, err := c.Complete(context.Background(), Request{Provider: "cohere"})
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *ConfigurationError", err)
	}
	if !strings.Contains(err.Error(), "cohere") {
		t.Errorf("error = %v, want the provider name", err)
	}
}

func TestClientNoProviderError(t *testing.T) {
	c := NewClient()
	_, err := c.Complete(context.Background(), Request{Model: "mystery-model"})
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *ConfigurationError", err)
	}
}

func TestClientMiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(tag string) Middleware {
		return func(ctx context.Context, req Request, next func(context.Context, Request) (*Response, error)) (*Response, error) {
			order = append(order, tag+":before")
			resp, err := next(ctx, req)
			order = append(order, tag+":after")
			return resp, err
		}
	}
	c := NewClient(
		WithProvider("openai", &mockAdapter{name: "openai"}),
		WithMiddleware(mw("outer"), mw("inner")),
	)

	if _, err := c.Complete(context.Background(), Request{}); err != nil {
		t.Fatal(err)
	}
	want := []string{"outer:before", "inner:before", "inner:after", "outer:after"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestClientMiddlewareCanRewriteRequest(t *testing.T) {
	adapter := &mockAdapter{name: "openai"}
	c := NewClient(
		WithProvider("openai", adapter),
		WithMiddleware(func(ctx context.Context, req Request, next func(context.Context, Request) (*Response, error)) (*Response, error) {
			req.Model = "gpt-4o"
			return next(ctx, req)
		}),
	)

	if _, err := c.Complete(context.Background(), Request{Model: "gpt-4o-mini"}); err != nil {
		t.Fatal(err)
	}
	if adapter.lastReq.Model != "gpt-4o" {
		t.Errorf("adapter saw model %q, want middleware rewrite", adapter.lastReq.Model)
	}
}

func TestClientFillsProviderOnRequest(t *testing.T) {
	adapter := &mockAdapter{name: "openai"}
	c := NewClient(WithProvider("openai", adapter))

	if _, err := c.Complete(context.Background(), Request{Model: "gpt-4o"}); err != nil {
		t.Fatal(err)
	}
	if adapter.lastReq.Provider != "openai" {
		t.Errorf("request provider = %q, want filled in", adapter.lastReq.Provider)
	}
}

func TestClientClose(t *testing.T) {
	a := &mockAdapter{name: "openai"}
	b := &mockAdapter{name: "anthropic"}
	c := NewClient(WithProvider("openai", a), WithProvider("anthropic", b))

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if !a.closed || !b.closed {
		t.Errorf("closed = %v/%v, want both", a.closed, b.closed)
	}
}

func TestRegisterProviderSetsDefault(t *testing.T) {
	c := NewClient()
	adapter := &mockAdapter{name: "groq"}
	c.RegisterProvider("groq", adapter)

	if _, err := c.Complete(context.Background(), Request{Model: "whatever"}); err != nil {
		t.Fatal(err)
	}
	if adapter.calls != 1 {
		t.Errorf("calls = %d, want 1", adapter.calls)
	}
}
