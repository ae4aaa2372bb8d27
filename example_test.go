package codeact_test

import (
	"context"
	"fmt"
	"log"

	"github.com/martinemde/codeact"
	"github.com/martinemde/codeact/llm"
	"github.com/martinemde/codeact/sandbox"
)

// Example shows the typical setup: a backend, a couple of host tools,
// and a schema-constrained finish value.
func Example() {
	client := llm.NewClientFromEnv()
	defer client.Close()

	agent, err := codeact.NewWithConfig(client, codeact.DefaultConfig().WithModel("claude-sonnet-4-5"))
	if err != nil {
		log.Fatal(err)
	}

	agent.RegisterTool(
		sandbox.NewToolInfo("search", "Search the web for a query.").
			Arg("query", "string", "what to search for").
			WithReturns("string"),
		func(args []any) (any, error) {
			query, _ := args[0].(string)
			return doSearch(query)
		},
	)

	if err := agent.WithSchema(`{
		"type": "object",
		"properties": {
			"answer": {"type": "string"},
			"confidence": {"type": "number", "minimum": 0, "maximum": 1}
		},
		"required": ["answer", "confidence"]
	}`); err != nil {
		log.Fatal(err)
	}

	type result struct {
		Answer     string  `json:"answer"`
		Confidence float64 `json:"confidence"`
	}
	out, err := codeact.RunAs[result](context.Background(), agent, "What year was Go released?")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Answer, out.Confidence)
}

// ExampleAgent_Map fans tasks out over independent clones sharing a
// context.
func ExampleAgent_Map() {
	client := llm.NewClientFromEnv()
	defer client.Close()

	agent, err := codeact.New(client)
	if err != nil {
		log.Fatal(err)
	}

	results := agent.Map(context.Background(), []string{
		"Summarize the Go release notes for 1.22",
		"Summarize the Go release notes for 1.23",
	})
	for _, r := range results {
		if r.Err != nil {
			fmt.Println(r.Task, "failed:", r.Err)
			continue
		}
		fmt.Println(r.Task, "->", string(r.Value))
	}
}

func doSearch(query string) (string, error) {
	return "no results for " + query, nil
}
