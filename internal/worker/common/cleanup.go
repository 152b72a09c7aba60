// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package common holds helpers shared by the agent's workers.
package common

import (
	"sync"

	"github.com/juju/worker/v4"
)

// NewCleanupWorker returns a worker that runs the given cleanup
// function once the inner worker has finished, whatever the reason.
func NewCleanupWorker(w worker.Worker, cleanup func()) worker.Worker {
	return &CleanupWorker{
		Worker:  w,
		cleanup: cleanup,
	}
}

// CleanupWorker wraps another worker with a cleanup function.
type CleanupWorker struct {
	worker.Worker
	cleanupOnce sync.Once
	cleanup     func()
}

// Wait blocks until the wrapped worker finishes, then runs the
// cleanup exactly once.
func (w *CleanupWorker) Wait() error {
	err := w.Worker.Wait()
	w.cleanupOnce.Do(w.cleanup)
	return err
}

// Report implements worker.Reporter if the wrapped worker does.
func (w *CleanupWorker) Report() map[string]interface{} {
	if r, ok := w.Worker.(worker.Reporter); ok {
		return r.Report()
	}
	return nil
}
