// Package batch discovers content documents under a root and drives the
// single-item pipeline for each. Items are mutually independent, but
// items sharing an index document are serialized: the index updater
// reads and rewrites whole index text, so concurrent jobs against one
// index would lose updates.
package batch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"distill/engine/internal/errinfo"
	"distill/engine/internal/logging"
	"distill/engine/internal/pipeline"
	"distill/engine/internal/report"
)

type Orchestrator struct {
	Runner     *pipeline.Runner
	ContentDir string
	IndexFile  string
	Workers    int
	Logger     *slog.Logger
}

// indexLocks hands out one mutex per index file path.
type indexLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *indexLocks) forPath(path string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	if _, ok := l.locks[path]; !ok {
		l.locks[path] = &sync.Mutex{}
	}
	return l.locks[path]
}

// RunAll processes every eligible document under rootDir. Per-item
// failures are recorded in the batch report; only a discovery failure
// aborts the whole run.
func (o *Orchestrator) RunAll(ctx context.Context, rootDir string) (report.Batch, error) {
	logger := o.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	dir := filepath.Join(rootDir, o.ContentDir)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return report.Batch{}, errinfo.InputNotFound(errinfo.StageBatch, dir)
	}
	indexPath := filepath.Join(dir, o.IndexFile)
	items, err := discover(dir, o.IndexFile)
	if err != nil {
		return report.Batch{}, errinfo.FileReadFailed(errinfo.StageBatch, err.Error())
	}
	logger.Info("batch.start", "root", rootDir, "items", len(items), "workers", o.workers())

	results := make([]report.Item, len(items))
	var locks indexLocks
	sem := make(chan struct{}, o.workers())
	var wg sync.WaitGroup
	for i, contentPath := range items {
		if ctx.Err() != nil {
			results[i] = report.Item{Path: contentPath, Outcome: report.OutcomeFailed, Error: errinfo.Canceled(errinfo.StageBatch).Error()}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, contentPath string) {
			defer wg.Done()
			defer func() { <-sem }()
			// One index file serves the whole directory today, but the
			// lock is keyed by path so per-document indexes stay safe.
			lock := locks.forPath(indexPath)
			lock.Lock()
			defer lock.Unlock()
			item, err := o.Runner.Run(ctx, contentPath, indexPath)
			if err != nil {
				logger.Warn("batch.item_failed", "path", contentPath, "error", err.Error())
			}
			results[i] = item
		}(i, contentPath)
	}
	wg.Wait()

	var batch report.Batch
	for _, item := range results {
		batch.Add(item)
	}
	logger.Info("batch.done",
		"total", batch.Total, "committed", batch.Committed,
		"optimal", batch.Optimal, "failed", batch.Failed,
		"lines_removed", batch.LinesRemoved)
	return batch, nil
}

func (o *Orchestrator) workers() int {
	if o.Workers < 1 {
		return 1
	}
	return o.Workers
}

// discover lists markdown documents directly under dir, excluding the
// index file itself. Non-recursive by design; nested directories belong
// to other tools.
func discover(dir, indexFile string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var items []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".md") {
			continue
		}
		if strings.EqualFold(name, indexFile) {
			continue
		}
		items = append(items, filepath.Join(dir, name))
	}
	return items, nil
}
