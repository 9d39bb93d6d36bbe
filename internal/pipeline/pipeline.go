// Package pipeline drives one compaction job end to end: workspace,
// summary, baseline, then a bounded compact/validate loop, and finally
// an atomic commit or a clean no-change exit. The attempt loop is an
// explicit state machine so "at most three attempts" is enforced by
// construction rather than by convention.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"distill/engine/internal/compact"
	"distill/engine/internal/errinfo"
	"distill/engine/internal/index"
	"distill/engine/internal/logging"
	"distill/engine/internal/oracle"
	"distill/engine/internal/report"
	"distill/engine/internal/summary"
	"distill/engine/internal/workspace"
)

const maxAttempts = 3

type state int

const (
	stateAttempt1 state = iota + 1
	stateAttempt2
	stateAttempt3
	stateCommit
	stateOptimal
)

func attemptState(n int) state {
	switch n {
	case 1:
		return stateAttempt1
	case 2:
		return stateAttempt2
	default:
		return stateAttempt3
	}
}

type BaselineGenerator interface {
	Generate(ctx context.Context, sum summary.Summary) (string, error)
}

type Validator interface {
	Validate(ctx context.Context, req oracle.ValidationRequest) (oracle.Verdict, error)
}

type Runner struct {
	Workspaces *workspace.Manager
	Baseline   BaselineGenerator
	Validator  Validator
	Logger     *slog.Logger
	// DryRun runs the full loop but never applies the proposal.
	DryRun bool
	// MaxAttempts lowers the attempt cap below three. Values outside
	// [1, maxAttempts] fall back to the cap.
	MaxAttempts int
	// CopyFile is the primitive the finalizer copies with; tests
	// substitute a failing copy to exercise rollback.
	CopyFile func(src, dst string) error
	// RestoreFile is the primitive rollback restores with. Kept separate
	// from CopyFile so an injected apply failure does not also break
	// recovery.
	RestoreFile func(src, dst string) error
}

func (r *Runner) attemptCap() int {
	if r.MaxAttempts >= 1 && r.MaxAttempts < maxAttempts {
		return r.MaxAttempts
	}
	return maxAttempts
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.Nop()
	}
	return r.Logger
}

// Run compacts one document. The returned report item is valid even on
// error. The workspace is destroyed on every exit path.
func (r *Runner) Run(ctx context.Context, contentPath, indexPath string) (report.Item, error) {
	item := report.Item{Path: contentPath, Outcome: report.OutcomeFailed}

	ws, err := r.Workspaces.Create(contentPath, indexPath)
	if err != nil {
		if errors.Is(err, workspace.ErrNotFound) {
			return fail(&item, errinfo.InputNotFound(errinfo.StageWorkspace, err.Error()))
		}
		if errors.Is(err, workspace.ErrInvalidPath) {
			return fail(&item, errinfo.InputInvalid(errinfo.StageWorkspace, err.Error()))
		}
		return fail(&item, errinfo.FileWriteFailed(errinfo.StageWorkspace, err.Error()))
	}
	defer ws.Destroy()
	log := r.logger().With("job", ws.ID, "content", contentPath)
	log.Info("pipeline.job_start", "lines", ws.Meta.ContentLines)

	content, err := ws.ReadFile(workspace.AreaOriginal, workspace.ContentFile)
	if err != nil {
		return fail(&item, errinfo.FileReadFailed(errinfo.StageWorkspace, err.Error()))
	}
	indexText, err := ws.ReadFile(workspace.AreaOriginal, workspace.IndexFile)
	if err != nil {
		return fail(&item, errinfo.FileReadFailed(errinfo.StageWorkspace, err.Error()))
	}
	item.OriginalLines = ws.Meta.ContentLines

	sum, err := summary.Generate(content)
	if err != nil {
		return fail(&item, errinfo.InputInvalid(errinfo.StageSummary, err.Error()))
	}
	if err := ws.WriteFile(workspace.AreaArtifacts, "summary.md", sum.Markdown()); err != nil {
		return fail(&item, errinfo.FileWriteFailed(errinfo.StageSummary, err.Error()))
	}
	if err := ws.WriteJSON(workspace.AreaArtifacts, "summary.json", sum); err != nil {
		return fail(&item, errinfo.FileWriteFailed(errinfo.StageSummary, err.Error()))
	}

	if err := ctx.Err(); err != nil {
		return fail(&item, errinfo.Canceled(errinfo.StageBaseline))
	}
	// The baseline is a pure function of the summary, so one generation
	// serves every attempt.
	baseline, err := r.Baseline.Generate(ctx, sum)
	if err != nil {
		return fail(&item, errinfo.OracleFailed(errinfo.StageBaseline, err.Error()))
	}
	if err := ws.WriteFile(workspace.AreaArtifacts, "baseline.md", baseline); err != nil {
		return fail(&item, errinfo.FileWriteFailed(errinfo.StageBaseline, err.Error()))
	}

	engine := compact.NewEngine(log)
	contentName := filepath.Base(ws.Meta.ContentPath)

	var prop compact.Proposal
	var guidance []string
	current := stateAttempt1
	attempts := 0
	for current != stateCommit && current != stateOptimal {
		attempts++
		item.Attempts = attempts
		log.Info("pipeline.attempt_start", "attempt", attempts)

		prop, err = engine.Compact(content, baseline, sum, guidance)
		if err != nil {
			return fail(&item, errinfo.InputInvalid(errinfo.StageCompact, err.Error()))
		}
		updatedIndex := index.Update(indexText, contentName, sum, prop.Retained)

		area := workspace.AttemptArea(attempts)
		if err := ws.WriteFile(area, workspace.ContentFile, prop.Content); err != nil {
			return fail(&item, errinfo.FileWriteFailed(errinfo.StageCompact, err.Error()))
		}
		if err := ws.WriteFile(area, workspace.IndexFile, updatedIndex); err != nil {
			return fail(&item, errinfo.FileWriteFailed(errinfo.StageIndex, err.Error()))
		}
		if err := ws.WriteJSON(area, "proposal.json", prop); err != nil {
			return fail(&item, errinfo.FileWriteFailed(errinfo.StageCompact, err.Error()))
		}

		if err := ctx.Err(); err != nil {
			return fail(&item, errinfo.Canceled(errinfo.StageValidate))
		}
		verdict, err := r.Validator.Validate(ctx, oracle.ValidationRequest{
			OriginalContent: content,
			OriginalIndex:   indexText,
			ProposedContent: prop.Content,
			ProposedIndex:   updatedIndex,
			Summary:         sum.Markdown(),
			Baseline:        baseline,
		})
		if err != nil {
			return fail(&item, errinfo.OracleFailed(errinfo.StageValidate, err.Error()))
		}
		if err := ws.WriteJSON(workspace.AreaValidation, fmt.Sprintf("attempt-%d.json", attempts), verdict); err != nil {
			return fail(&item, errinfo.FileWriteFailed(errinfo.StageValidate, err.Error()))
		}
		log.Info("pipeline.verdict", "attempt", attempts, "verdict", verdict.Decision)

		switch {
		case verdict.Accepted():
			current = stateCommit
		case current == stateAttempt3 || attempts >= r.attemptCap():
			current = stateOptimal
		default:
			guidance = verdict.Guidance
			current = attemptState(attempts + 1)
		}
	}

	if current == stateOptimal {
		// Three rejections mean the document is already well-structured.
		// Not an error: nothing outside the workspace was touched.
		item.Outcome = report.OutcomeOptimal
		item.CompactedLines = item.OriginalLines
		log.Info("pipeline.optimal_no_change", "attempts", attempts)
		return item, nil
	}

	item.CompactedLines = prop.CompactedLines
	item.ReductionPct = report.Reduction(item.OriginalLines, item.CompactedLines)
	if r.DryRun {
		item.Outcome = report.OutcomeWouldCommit
		log.Info("pipeline.dry_run_complete", "attempts", attempts,
			"original_lines", item.OriginalLines, "compacted_lines", item.CompactedLines)
		return item, nil
	}
	if err := r.commit(ws, attempts); err != nil {
		return fail(&item, err)
	}
	item.Outcome = report.OutcomeCommitted
	log.Info("pipeline.committed", "attempts", attempts,
		"original_lines", item.OriginalLines, "compacted_lines", item.CompactedLines)
	return item, nil
}

func fail(item *report.Item, err error) (report.Item, error) {
	item.Outcome = report.OutcomeFailed
	item.Error = err.Error()
	return *item, err
}
