// Package report renders per-job and per-batch results for the CLI.
package report

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

const (
	OutcomeCommitted = "committed"
	// OutcomeWouldCommit marks a dry run that passed validation; nothing
	// was applied, so it never counts as committed.
	OutcomeWouldCommit = "would_commit"
	OutcomeOptimal     = "optimal_no_change"
	OutcomeFailed      = "failed"
)

type Item struct {
	Path           string  `yaml:"path"`
	OriginalLines  int     `yaml:"original_lines"`
	CompactedLines int     `yaml:"compacted_lines"`
	ReductionPct   float64 `yaml:"reduction_pct"`
	Outcome        string  `yaml:"outcome"`
	Attempts       int     `yaml:"attempts"`
	Error          string  `yaml:"error,omitempty"`
}

type Batch struct {
	Items        []Item `yaml:"items"`
	Total        int    `yaml:"total"`
	Committed    int    `yaml:"committed"`
	WouldCommit  int    `yaml:"would_commit,omitempty"`
	Optimal      int    `yaml:"optimal_no_change"`
	Failed       int    `yaml:"failed"`
	LinesRemoved int    `yaml:"lines_removed"`
}

func (b *Batch) Add(item Item) {
	b.Items = append(b.Items, item)
	b.Total++
	switch item.Outcome {
	case OutcomeCommitted:
		b.Committed++
		b.LinesRemoved += item.OriginalLines - item.CompactedLines
	case OutcomeWouldCommit:
		b.WouldCommit++
	case OutcomeOptimal:
		b.Optimal++
	default:
		b.Failed++
	}
}

// Reduction computes the percentage removed, guarding the zero case.
func Reduction(original, compacted int) float64 {
	if original <= 0 {
		return 0
	}
	return 100 * float64(original-compacted) / float64(original)
}

// FormatChange renders the "584 → 375 (−35.8%)" form used in reports.
func FormatChange(item Item) string {
	switch item.Outcome {
	case OutcomeCommitted, OutcomeWouldCommit:
		return fmt.Sprintf("%d → %d (−%.1f%%)", item.OriginalLines, item.CompactedLines, item.ReductionPct)
	default:
		return fmt.Sprintf("%d (unchanged)", item.OriginalLines)
	}
}

func (b *Batch) Table() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tLINES\tOUTCOME\tATTEMPTS")
	for _, item := range b.Items {
		detail := item.Outcome
		if item.Error != "" {
			detail = fmt.Sprintf("%s: %s", item.Outcome, item.Error)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", item.Path, FormatChange(item), detail, item.Attempts)
	}
	_ = w.Flush()
	if b.WouldCommit > 0 {
		fmt.Fprintf(&sb, "\n%d processed (dry run): %d would commit, %d already optimal, %d failed\n",
			b.Total, b.WouldCommit, b.Optimal, b.Failed)
		return sb.String()
	}
	fmt.Fprintf(&sb, "\n%d processed: %d committed, %d already optimal, %d failed, %d lines removed\n",
		b.Total, b.Committed, b.Optimal, b.Failed, b.LinesRemoved)
	return sb.String()
}

func (b *Batch) YAML() (string, error) {
	data, err := yaml.Marshal(b)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
