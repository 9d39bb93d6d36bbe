package pipeline

import (
	"path/filepath"

	"distill/engine/internal/errinfo"
	"distill/engine/internal/workspace"
)

// commit applies the accepted attempt's proposal over the originals.
// Both originals are backed up first; a failure applying either file
// restores both from backup, so the pair is never left mixed. Backups
// live inside the workspace and disappear with it.
func (r *Runner) commit(ws *workspace.Workspace, attempt int) error {
	copyFn := r.CopyFile
	if copyFn == nil {
		copyFn = workspace.CopyFile
	}

	backupDir := filepath.Join(ws.Root(), workspace.AreaMetadata, "backup")
	backupContent := filepath.Join(backupDir, workspace.ContentFile)
	backupIndex := filepath.Join(backupDir, workspace.IndexFile)
	if err := copyFn(ws.Meta.ContentPath, backupContent); err != nil {
		return errinfo.CommitFailed("backup content: "+err.Error(), true)
	}
	if err := copyFn(ws.Meta.IndexPath, backupIndex); err != nil {
		return errinfo.CommitFailed("backup index: "+err.Error(), true)
	}

	area := workspace.AttemptArea(attempt)
	propContent, err := ws.Path(area, workspace.ContentFile)
	if err != nil {
		return errinfo.CommitFailed("resolve proposal: "+err.Error(), true)
	}
	propIndex, err := ws.Path(area, workspace.IndexFile)
	if err != nil {
		return errinfo.CommitFailed("resolve proposal: "+err.Error(), true)
	}

	if err := copyFn(propContent, ws.Meta.ContentPath); err != nil {
		return r.rollback(ws, backupContent, backupIndex, "apply content: "+err.Error())
	}
	if err := copyFn(propIndex, ws.Meta.IndexPath); err != nil {
		return r.rollback(ws, backupContent, backupIndex, "apply index: "+err.Error())
	}
	return nil
}

// rollback restores both originals from backup. A restore failure is
// escalated as the integrity error it is: the source pair may be left
// inconsistent.
func (r *Runner) rollback(ws *workspace.Workspace, backupContent, backupIndex, cause string) error {
	restoreFn := r.RestoreFile
	if restoreFn == nil {
		restoreFn = workspace.CopyFile
	}
	restoreErr := restoreFn(backupContent, ws.Meta.ContentPath)
	if err := restoreFn(backupIndex, ws.Meta.IndexPath); restoreErr == nil {
		restoreErr = err
	}
	if restoreErr != nil {
		return errinfo.RollbackFailed(cause + "; restore failed: " + restoreErr.Error())
	}
	return errinfo.CommitFailed(cause, true)
}
