package sandbox

import (
	"strings"
	"testing"
)

func TestToolInfoSignature(t *testing.T) {
	info := NewToolInfo("search", "Search the web.").
		Arg("query", "string", "the search query").
		OptArg("limit", "number", "max results").
		WithReturns("string")

	sig := info.Signature()
	want := "search(query: string, limit: number?) -> string"
	if sig != want {
		t.Errorf("Signature() = %q, want %q", sig, want)
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(NewToolInfo("echo", "Echo."), func(args []any) (any, error) {
		return args[0], nil
	})

	info, fn, ok := r.Get("echo")
	if !ok {
		t.Fatal("Get returned ok=false for registered tool")
	}
	if info.Name != "echo" {
		t.Errorf("info.Name = %q, want %q", info.Name, "echo")
	}
	out, err := fn([]any{"hi"})
	if err != nil {
		t.Fatalf("fn returned error: %v", err)
	}
	if out != "hi" {
		t.Errorf("fn returned %v, want %q", out, "hi")
	}

	if _, _, ok := r.Get("missing"); ok {
		t.Error("Get returned ok=true for unregistered tool")
	}
}

func TestRegistryReplaceSameName(t *testing.T) {
	r := NewRegistry()
	r.Register(NewToolInfo("f", "first"), func([]any) (any, error) { return 1, nil })
	r.Register(NewToolInfo("f", "second"), func([]any) (any, error) { return 2, nil })

	if r.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", r.Count())
	}
	info, fn, _ := r.Get("f")
	if info.Description != "second" {
		t.Errorf("Description = %q, want %q", info.Description, "second")
	}
	out, _ := fn(nil)
	if out != 2 {
		t.Errorf("fn returned %v, want 2", out)
	}
}

func TestRegistryInfosSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(NewToolInfo("zeta", ""), nil)
	r.Register(NewToolInfo("alpha", ""), nil)
	r.Register(NewToolInfo("mid", ""), nil)

	infos := r.Infos()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	want := []string{"alpha", "mid", "zeta"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Infos() order = %v, want %v", names, want)
		}
	}
}

func TestRegistryCloneIsIndependent(t *testing.T) {
	r := NewRegistry()
	r.Register(NewToolInfo("a", ""), nil)

	c := r.Clone()
	c.Register(NewToolInfo("b", ""), nil)
	c.Unregister("a")

	if !r.Has("a") {
		t.Error("clone's Unregister removed tool from original")
	}
	if r.Has("b") {
		t.Error("clone's Register added tool to original")
	}
}

func TestDescribeListsEachToolOnce(t *testing.T) {
	r := NewRegistry()
	r.Register(NewToolInfo("search", "Search the web.").
		Arg("query", "string", "the search query").
		WithReturns("string"), nil)
	r.Register(NewToolInfo("fetch", "Fetch a URL.").
		Arg("url", "string", "the URL").
		WithReturns("string"), nil)

	doc := r.Describe()
	for _, name := range []string{"search", "fetch"} {
		if n := strings.Count(doc, name+"("); n != 1 {
			t.Errorf("Describe() mentions %s( %d times, want 1\n%s", name, n, doc)
		}
	}
	if !strings.Contains(doc, "search(query: string) -> string") {
		t.Errorf("Describe() missing signature:\n%s", doc)
	}
	if !strings.Contains(doc, "the search query") {
		t.Errorf("Describe() missing arg description:\n%s", doc)
	}
}
