// Package errinfo carries structured error data across pipeline stages so
// the CLI can always say which stage failed and why.
package errinfo

import "fmt"

type ErrorInfo struct {
	ErrorCode string `json:"error_code"`
	Stage     string `json:"stage,omitempty"`
	Retryable bool   `json:"retryable"`
	Detail    string `json:"detail,omitempty"`
	// RollbackOK reports, for commit failures only, whether both source
	// files were restored from backup.
	RollbackOK *bool `json:"rollback_ok,omitempty"`
}

func (e *ErrorInfo) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s (stage %s)", e.ErrorCode, e.Stage)
	}
	return fmt.Sprintf("%s (stage %s): %s", e.ErrorCode, e.Stage, e.Detail)
}

const (
	CodeInputNotFound   = "INPUT_NOT_FOUND"
	CodeInputInvalid    = "INPUT_INVALID"
	CodeOracleFailed    = "ORACLE_FAILED"
	CodeCommitFailed    = "COMMIT_FAILED"
	CodeRollbackFailed  = "ROLLBACK_FAILED"
	CodeFileReadFailed  = "FILE_READ_FAILED"
	CodeFileWriteFailed = "FILE_WRITE_FAILED"
	CodeCanceled        = "CANCELED"
)

const (
	StageWorkspace = "workspace"
	StageSummary   = "summary"
	StageBaseline  = "baseline"
	StageCompact   = "compact"
	StageIndex     = "index"
	StageValidate  = "validate"
	StageFinalize  = "finalize"
	StageBatch     = "batch"
)

func InputNotFound(stage, detail string) *ErrorInfo {
	return &ErrorInfo{ErrorCode: CodeInputNotFound, Stage: stage, Retryable: false, Detail: detail}
}

func InputInvalid(stage, detail string) *ErrorInfo {
	return &ErrorInfo{ErrorCode: CodeInputInvalid, Stage: stage, Retryable: false, Detail: detail}
}

func OracleFailed(stage, detail string) *ErrorInfo {
	return &ErrorInfo{ErrorCode: CodeOracleFailed, Stage: stage, Retryable: true, Detail: detail}
}

func CommitFailed(detail string, rollbackOK bool) *ErrorInfo {
	ok := rollbackOK
	return &ErrorInfo{ErrorCode: CodeCommitFailed, Stage: StageFinalize, Retryable: false, Detail: detail, RollbackOK: &ok}
}

// RollbackFailed is the one loud integrity error: the commit failed and the
// originals could not be restored, so the source pair may be inconsistent.
func RollbackFailed(detail string) *ErrorInfo {
	ok := false
	return &ErrorInfo{ErrorCode: CodeRollbackFailed, Stage: StageFinalize, Retryable: false, Detail: detail, RollbackOK: &ok}
}

func FileReadFailed(stage, detail string) *ErrorInfo {
	return &ErrorInfo{ErrorCode: CodeFileReadFailed, Stage: stage, Retryable: false, Detail: detail}
}

func FileWriteFailed(stage, detail string) *ErrorInfo {
	return &ErrorInfo{ErrorCode: CodeFileWriteFailed, Stage: stage, Retryable: false, Detail: detail}
}

func Canceled(stage string) *ErrorInfo {
	return &ErrorInfo{ErrorCode: CodeCanceled, Stage: stage, Retryable: false}
}
