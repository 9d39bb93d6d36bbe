// Package index rewrites the single pointer entry that advertises a
// content document. The entry promises exact counts; those counts come
// from the proposal's retained inventory so the promise always matches
// what the compacted document actually contains.
package index

import (
	"fmt"
	"strings"

	"distill/engine/internal/summary"
)

// Entry renders the pointer line for a document.
func Entry(contentFile string, sum summary.Summary, retained summary.Inventory) string {
	return fmt.Sprintf("- [%s](%s) — %s Contains: %s.", sum.Title, contentFile, sentence(sum.Scenario), retained.Describe())
}

// Update locates the entry whose link target is contentFile and rewrites
// it in place. If no entry exists one is appended at the end, so creation
// order follows discovery order. Entries for other documents are never
// touched.
func Update(indexText, contentFile string, sum summary.Summary, retained summary.Inventory) string {
	entry := Entry(contentFile, sum, retained)
	marker := "](" + contentFile + ")"
	lines := strings.Split(strings.TrimRight(indexText, "\n"), "\n")
	for i, line := range lines {
		if strings.Contains(line, marker) {
			lines[i] = entry
			return strings.Join(lines, "\n") + "\n"
		}
	}
	if len(lines) == 1 && strings.TrimSpace(lines[0]) == "" {
		return entry + "\n"
	}
	return strings.Join(lines, "\n") + "\n" + entry + "\n"
}

func sentence(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}
	if !strings.HasSuffix(trimmed, ".") && !strings.HasSuffix(trimmed, "…") {
		trimmed += "."
	}
	return trimmed
}
