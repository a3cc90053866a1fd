package core

import "time"

// ProgressReporter observes a run at file and batch boundaries. It is
// invoked synchronously and must not block or mutate processor state.
type ProgressReporter interface {
	StartProcessing(fileCount int)
	StartFile(name string)
	// UpdateRows reports rows handled in the current file. estimatedTotal
	// is zero when unknown.
	UpdateRows(count int, estimatedTotal int)
	CompleteFile(rows int)
	CompleteProcessing(totalRows int, duration time.Duration)
}

// NullProgressReporter is the default no-op observer.
type NullProgressReporter struct{}

var _ ProgressReporter = (*NullProgressReporter)(nil)

func (*NullProgressReporter) StartProcessing(int) {}
func (*NullProgressReporter) StartFile(string) {}
func (*NullProgressReporter) UpdateRows(int, int) {}
func (*NullProgressReporter) CompleteFile(int) {}
func (*NullProgressReporter) CompleteProcessing(int, time.Duration) {}
