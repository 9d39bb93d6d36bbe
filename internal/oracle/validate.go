package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	VerdictAccept = "ACCEPT"
	VerdictReject = "REJECT"
)

// Verdict is the validator's structured answer. Guidance is only present
// on rejection and names the concrete issues the next attempt must fix.
type Verdict struct {
	Decision  string   `json:"verdict"`
	Reasoning string   `json:"reasoning,omitempty"`
	Guidance  []string `json:"guidance,omitempty"`
}

func (v Verdict) Accepted() bool {
	return v.Decision == VerdictAccept
}

// ValidationRequest carries the four artifacts the validator inspects.
// It deliberately contains nothing about how the proposal was produced.
type ValidationRequest struct {
	OriginalContent string
	OriginalIndex   string
	ProposedContent string
	ProposedIndex   string
	Summary         string
	Baseline        string
}

const validateSystem = `You review a proposed compaction of a reference document. You did not
produce it. Check, in order:
1. Read the proposed index entry cold: does it set accurate expectations
   for the compacted document?
2. Do all counts and categories promised in the index entry exactly
   match the compacted document?
3. Is every concrete detail, edge case, and complete unit (full code
   blocks, checklists, configurations) from the original still present
   and untruncated, unless it is near-equivalent to baseline text?
4. Was anything removed that the baseline does not cover, or kept that
   the baseline fully covers?
5. Does the document start with a single cross-reference comment naming
   what was omitted and what remains?
Reply with one fenced JSON object:
{"verdict":"ACCEPT"|"REJECT","reasoning":"...","guidance":["..."]}
Guidance is required on REJECT and must name each section to fix.`

// ValidationOracle asks the second collaborator for an ACCEPT/REJECT
// verdict on a proposal.
type ValidationOracle struct {
	Completer Completer
}

func (o *ValidationOracle) Validate(ctx context.Context, req ValidationRequest) (Verdict, error) {
	var b strings.Builder
	section := func(name, text string) {
		b.WriteString("## " + name + "\n\n```\n" + strings.TrimRight(text, "\n") + "\n```\n\n")
	}
	section("Original document", req.OriginalContent)
	section("Original index", req.OriginalIndex)
	section("Proposed document", req.ProposedContent)
	section("Proposed index", req.ProposedIndex)
	section("Summary", req.Summary)
	section("Baseline", req.Baseline)

	reply, err := o.Completer.Complete(ctx, validateSystem, b.String())
	if err != nil {
		return Verdict{}, err
	}
	return ParseVerdict(reply)
}

// ParseVerdict extracts the first JSON object from the reply. Anything
// unparseable is a collaborator failure, not a rejection.
func ParseVerdict(reply string) (Verdict, error) {
	start := strings.Index(reply, "{")
	if start < 0 {
		return Verdict{}, fmt.Errorf("%w: no verdict object in reply", ErrOracleFailed)
	}
	decoder := json.NewDecoder(strings.NewReader(reply[start:]))
	var verdict Verdict
	if err := decoder.Decode(&verdict); err != nil {
		return Verdict{}, fmt.Errorf("%w: malformed verdict: %v", ErrOracleFailed, err)
	}
	verdict.Decision = strings.ToUpper(strings.TrimSpace(verdict.Decision))
	switch verdict.Decision {
	case VerdictAccept, VerdictReject:
	default:
		return Verdict{}, fmt.Errorf("%w: unknown verdict %q", ErrOracleFailed, verdict.Decision)
	}
	if verdict.Decision == VerdictReject && len(verdict.Guidance) == 0 && verdict.Reasoning != "" {
		// A validator that rejects without structured guidance still
		// gives the next attempt its reasoning to work from.
		verdict.Guidance = []string{verdict.Reasoning}
	}
	return verdict, nil
}
