package index

import (
	"strings"
	"testing"

	"distill/engine/internal/summary"
)

var testSummary = summary.Summary{
	Title:    "Retry Patterns",
	Scenario: "Use when deciding how a client should retry failed calls",
}

var retained = summary.Inventory{CodeBlocks: 3, ChecklistItems: 5}

func TestUpdateRewritesExistingEntry(t *testing.T) {
	indexText := `# Skills

- [Other Doc](other.md) — unrelated entry.
- [Retry Patterns](retry-patterns.md) — stale text. Contains: 9 code examples.
- [Third Doc](third.md) — also unrelated.
`
	got := Update(indexText, "retry-patterns.md", testSummary, retained)
	if !strings.Contains(got, "Contains: 3 code examples, 5 checklist items.") {
		t.Fatalf("entry not rewritten:\n%s", got)
	}
	if strings.Contains(got, "9 code examples") {
		t.Fatalf("stale entry survived:\n%s", got)
	}
	if !strings.Contains(got, "- [Other Doc](other.md) — unrelated entry.") {
		t.Fatalf("unrelated entry modified:\n%s", got)
	}
	if !strings.Contains(got, "- [Third Doc](third.md) — also unrelated.") {
		t.Fatalf("unrelated entry modified:\n%s", got)
	}
	if strings.Count(got, "retry-patterns.md") != 1 {
		t.Fatalf("expected exactly one entry:\n%s", got)
	}
}

func TestUpdateAppendsMissingEntry(t *testing.T) {
	indexText := "# Skills\n\n- [Other Doc](other.md) — unrelated entry.\n"
	got := Update(indexText, "retry-patterns.md", testSummary, retained)
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, "- [Retry Patterns](retry-patterns.md)") {
		t.Fatalf("expected appended entry last, got %q", last)
	}
}

func TestUpdateEmptyIndex(t *testing.T) {
	got := Update("", "retry-patterns.md", testSummary, retained)
	if !strings.HasPrefix(got, "- [Retry Patterns](retry-patterns.md)") {
		t.Fatalf("unexpected index:\n%s", got)
	}
}

func TestEntryStatesScenarioAndCounts(t *testing.T) {
	entry := Entry("retry-patterns.md", testSummary, retained)
	if !strings.Contains(entry, "Use when deciding how a client should retry failed calls.") {
		t.Fatalf("scenario missing: %q", entry)
	}
	if !strings.HasSuffix(entry, "Contains: 3 code examples, 5 checklist items.") {
		t.Fatalf("counts missing: %q", entry)
	}
}
