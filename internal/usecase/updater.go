package usecase

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/profile-banner/internal/domain"
)

// DocumentFiller writes a snapshot into a set of documents and reports how many were written.
type DocumentFiller interface {
	FillAll(paths []string, snapshot *domain.Snapshot, fields []domain.Field) int
}

// Updater runs the whole pipeline: collect every counter, then fill every document.
type Updater struct {
	collector *Collector
	filler    DocumentFiller
	logger    logrus.FieldLogger
}

// NewUpdater creates a new Updater instance.
func NewUpdater(collector *Collector, filler DocumentFiller, logger logrus.FieldLogger) *Updater {
	return &Updater{
		collector: collector,
		filler:    filler,
		logger:    logger,
	}
}

// Result summarizes one update run.
type Result struct {
	Snapshot *domain.Snapshot
	Written  int
}

// Run collects the counters for login and writes them into documents.
// Documents are only touched once every counter has been fetched.
func (u *Updater) Run(ctx context.Context, login string, counters []domain.Counter, documents []string, fields []domain.Field) (*Result, error) {
	snapshot, err := u.collector.Collect(ctx, login, counters)
	if err != nil {
		return nil, err
	}
	written := u.filler.FillAll(documents, snapshot, fields)
	u.logger.WithFields(logrus.Fields{"written": written, "documents": len(documents)}).Debug("Usecase: update complete")
	return &Result{Snapshot: snapshot, Written: written}, nil
}
