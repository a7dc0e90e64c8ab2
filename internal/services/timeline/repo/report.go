// Package repo provides the report sinks of the timeline service
package repo

import (
	"context"
	"errors"
	"io"

	"prtimeline/internal/core/report"
	"prtimeline/internal/core/timeline"
	"prtimeline/internal/services/timeline/domain"
)

// Report writes delimited text rows to w, flushing after every pull request
type Report struct {
	w *report.Writer
}

// NewReport returns a text report sink in format f
func NewReport(w io.Writer, f report.Format) *Report {
	return &Report{w: report.NewWriter(w, f)}
}

// Write implements domain.Sink
func (r *Report) Write(_ context.Context, pr timeline.PullRequest) error {
	if err := r.w.Write(pr); err != nil {
		return err
	}
	return r.w.Flush()
}

// Close writes the header when nothing else was written, then flushes
func (r *Report) Close(context.Context) error {
	if err := r.w.WriteHeader(); err != nil {
		return err
	}
	return r.w.Flush()
}

// Multi fans every pull request out to each sink in order
type Multi []domain.Sink

// Write stops at the first failing sink
func (m Multi) Write(ctx context.Context, pr timeline.PullRequest) error {
	for _, s := range m {
		if err := s.Write(ctx, pr); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors
func (m Multi) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
