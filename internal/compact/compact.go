// Package compact implements the tiered classification that separates a
// document's reproducible material from its unique value. Reproducible
// means: a side-by-side line diff against the baseline shows the section
// is near-equivalent to what the baseline already says. Anything
// ambiguous is retained; the engine is biased toward over-preservation.
package compact

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"distill/engine/internal/logging"
	"distill/engine/internal/summary"
)

type Tier int

const (
	// TierUnique is a complete, self-contained unit of value (a full
	// pattern, checklist, or configuration). Kept whole or not at all.
	TierUnique Tier = 1
	// TierDetail is concrete technical detail on a topic the baseline
	// mentions without substance. Retained.
	TierDetail Tier = 2
	// TierGeneric is near-equivalent to baseline text. Discarded.
	TierGeneric Tier = 3
)

// discardThreshold is the minimum fraction of a section's meaningful
// lines that must already appear in the baseline before the section may
// be classified TierGeneric.
const discardThreshold = 0.8

type Section struct {
	Heading string
	Level   int
	Lines   []string
}

type SectionResult struct {
	Heading string `json:"heading"`
	Tier    Tier   `json:"tier"`
	Reason  string `json:"reason"`
}

// Proposal is one attempt's output: the compacted document plus the
// bookkeeping the index updater and validation oracle need.
type Proposal struct {
	Content        string            `json:"-"`
	OriginalLines  int               `json:"original_lines"`
	CompactedLines int               `json:"compacted_lines"`
	Elided         []string          `json:"elided"`
	Retained       summary.Inventory `json:"retained"`
	Results        []SectionResult   `json:"results"`
}

type Engine struct {
	logger *slog.Logger
	dmp    *diffmatchpatch.DiffMatchPatch
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{logger: logger, dmp: diffmatchpatch.New()}
}

// Compact classifies the document section by section against the
// baseline. Guidance entries from a prior rejection force-retain the
// sections they name; everything else is re-classified the same way, so
// a retry addresses the named issues without churning the rest.
func (e *Engine) Compact(content, baseline string, sum summary.Summary, guidance []string) (Proposal, error) {
	preamble, sections := splitSections(content)
	prop := Proposal{OriginalLines: lineCount(content)}

	var out []string
	var elided []string
	for _, sec := range sections {
		result := e.classify(sec, baseline, guidance)
		prop.Results = append(prop.Results, result)
		if result.Tier == TierGeneric {
			elided = append(elided, sec.Heading)
			e.logger.Debug("compact.section_elided", "heading", sec.Heading, "reason", result.Reason)
			continue
		}
		out = append(out, sec.Lines...)
	}
	prop.Elided = elided

	body := strings.TrimRight(strings.Join(append(preamble, out...), "\n"), "\n")
	compacted := crossReference(elided, body) + "\n" + body + "\n"
	prop.Content = compacted
	prop.CompactedLines = lineCount(compacted)
	prop.Retained = summary.Count(compacted)
	return prop, nil
}

func (e *Engine) classify(sec Section, baseline string, guidance []string) SectionResult {
	if forced, hint := forcedByGuidance(sec.Heading, guidance); forced {
		return SectionResult{Heading: sec.Heading, Tier: TierUnique, Reason: "guidance: " + hint}
	}
	overlap := e.overlap(sec, baseline)
	if overlap >= discardThreshold {
		return SectionResult{Heading: sec.Heading, Tier: TierGeneric, Reason: fmt.Sprintf("%.0f%% reproducible from baseline", overlap*100)}
	}
	if hasProtectedUnit(sec.Lines) {
		return SectionResult{Heading: sec.Heading, Tier: TierUnique, Reason: "self-contained unit"}
	}
	if topicMentioned(sec.Heading, baseline) {
		return SectionResult{Heading: sec.Heading, Tier: TierDetail, Reason: "detail beyond baseline topic"}
	}
	return SectionResult{Heading: sec.Heading, Tier: TierDetail, Reason: "not covered by baseline"}
}

// overlap measures the fraction of the section's meaningful lines that a
// line diff finds unchanged against the baseline.
func (e *Engine) overlap(sec Section, baseline string) float64 {
	secText := normalize(sec.Lines)
	if secText == "" {
		return 1
	}
	baseText := normalize(strings.Split(baseline, "\n"))
	secChars, baseChars, lineArray := e.dmp.DiffLinesToChars(secText, baseText)
	diffs := e.dmp.DiffMain(secChars, baseChars, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	total := 0
	shared := 0
	for _, d := range diffs {
		n := lineCount(strings.TrimRight(d.Text, "\n"))
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			total += n
			shared += n
		case diffmatchpatch.DiffDelete:
			// Lines only in the section.
			total += n
		}
	}
	if total == 0 {
		return 1
	}
	return float64(shared) / float64(total)
}

// crossReference is the fixed first line of every compacted document: it
// names what was elided and what remains.
func crossReference(elided []string, body string) string {
	omitted := "nothing"
	if len(elided) > 0 {
		topics := make([]string, len(elided))
		for i, heading := range elided {
			topics[i] = headingTitle(heading)
		}
		omitted = strings.Join(topics, ", ")
	}
	retained := summary.Count(body).Describe()
	return fmt.Sprintf("%s omits %s (reproducible from summary); retains %s -->", crossRefPrefix, omitted, retained)
}

const crossRefPrefix = "<!-- distilled:"

func splitSections(content string) (preamble []string, sections []Section) {
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	// A document that was already compacted carries a cross-reference
	// line; drop it so re-runs replace it instead of stacking another.
	for len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), crossRefPrefix) {
		lines = lines[1:]
	}
	inFence := false
	current := -1
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
		}
		if !inFence && strings.HasPrefix(trimmed, "##") && !strings.HasPrefix(trimmed, "```") {
			level := headingLevel(trimmed)
			sections = append(sections, Section{Heading: trimmed, Level: level})
			current = len(sections) - 1
		}
		if current < 0 {
			preamble = append(preamble, line)
			continue
		}
		sections[current].Lines = append(sections[current].Lines, line)
	}
	return preamble, sections
}

// hasProtectedUnit reports whether the section contains material that
// must never be partially preserved: fenced code or checklist items.
func hasProtectedUnit(lines []string) bool {
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "```") {
			return true
		}
		if strings.HasPrefix(line, "- [ ]") || strings.HasPrefix(line, "- [x]") || strings.HasPrefix(line, "- [X]") {
			return true
		}
	}
	return false
}

func forcedByGuidance(heading string, guidance []string) (bool, string) {
	title := strings.ToLower(headingTitle(heading))
	if title == "" {
		return false, ""
	}
	for _, hint := range guidance {
		if strings.Contains(strings.ToLower(hint), title) {
			return true, hint
		}
	}
	return false, ""
}

func topicMentioned(heading, baseline string) bool {
	title := strings.ToLower(headingTitle(heading))
	if title == "" {
		return false
	}
	return strings.Contains(strings.ToLower(baseline), title)
}

func headingTitle(heading string) string {
	return strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(heading), "#"))
}

func headingLevel(heading string) int {
	level := 0
	for _, r := range heading {
		if r != '#' {
			break
		}
		level++
	}
	return level
}

func normalize(lines []string) string {
	var out []string
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

// lineCount matches the workspace's convention: a trailing newline does
// not start a new line.
func lineCount(value string) int {
	if value == "" {
		return 0
	}
	return strings.Count(strings.TrimRight(value, "\n"), "\n") + 1
}
