package summary

import (
	"strings"
	"testing"
)

const fixture = `# Widget Debugging

Use this guide when a widget pipeline stalls and the logs show no
obvious cause.

## Quick checks

- [ ] Confirm the queue is draining
- [ ] Check the dead-letter topic

## Example: stuck consumer

` + "```go" + `
consumer.Rewind(offset)
` + "```" + `

## Reference table

| Signal | Meaning |
|--------|---------|
| lag    | backlog |
`

func TestGenerateInventoryCounts(t *testing.T) {
	sum, err := Generate(fixture)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if sum.Title != "Widget Debugging" {
		t.Fatalf("title: %q", sum.Title)
	}
	if !strings.HasPrefix(sum.Scenario, "Use this guide when") {
		t.Fatalf("scenario: %q", sum.Scenario)
	}
	inv := sum.Inventory
	if inv.Sections != 3 {
		t.Fatalf("sections: %d", inv.Sections)
	}
	if inv.CodeBlocks != 1 {
		t.Fatalf("code blocks: %d", inv.CodeBlocks)
	}
	if inv.ChecklistItems != 2 {
		t.Fatalf("checklist items: %d", inv.ChecklistItems)
	}
	if inv.Tables != 1 {
		t.Fatalf("tables: %d", inv.Tables)
	}
	if inv.Examples != 1 {
		t.Fatalf("examples: %d", inv.Examples)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	first, err := Generate(fixture)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	second, err := Generate(fixture)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical summaries:\n%+v\n%+v", first, second)
	}
}

func TestGenerateRejectsEmpty(t *testing.T) {
	if _, err := Generate("   \n\n"); err == nil {
		t.Fatalf("expected error for empty content")
	}
}

func TestDescribeOmitsZeroCategories(t *testing.T) {
	inv := Inventory{CodeBlocks: 2, ChecklistItems: 1}
	got := inv.Describe()
	if got != "2 code examples, 1 checklist item" {
		t.Fatalf("describe: %q", got)
	}
}

func TestCountIgnoresHeadingsInsideFences(t *testing.T) {
	text := "# T\n\nintro\n\n```\n## not a heading\n- [ ] not a task\n```\n"
	inv := Count(text)
	if inv.Sections != 0 || inv.ChecklistItems != 0 {
		t.Fatalf("fence contents counted: %+v", inv)
	}
	if inv.CodeBlocks != 1 {
		t.Fatalf("code blocks: %d", inv.CodeBlocks)
	}
}
