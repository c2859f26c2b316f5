package payroll

import (
	"context"
	"fmt"

	"farmoffice/internal/domain/worklog"

	"golang.org/x/sync/errgroup"
)

// WorkLogReader returns work-log entries with dates in [startDate, endDate],
// date ascending.
type WorkLogReader interface {
	FindInRange(ctx context.Context, startDate, endDate string) ([]worklog.Entry, error)
}

type WorkerDirectory interface {
	ListAll(ctx context.Context) ([]WorkerProfile, error)
}

type Recorder interface {
	RecordPayroll(entries int)
}

type Service struct {
	logs      WorkLogReader
	directory WorkerDirectory
	recorder  Recorder
}

func NewService(logs WorkLogReader, directory WorkerDirectory, recorder Recorder) *Service {
	return &Service{logs: logs, directory: directory, recorder: recorder}
}

func (q Query) Validate() error {
	if q.StartDate == "" || q.EndDate == "" {
		return ErrMissingRange
	}
	if !worklog.ValidDate(q.StartDate) || !worklog.ValidDate(q.EndDate) {
		return ErrInvalidDate
	}
	if q.StartDate > q.EndDate {
		return ErrInvalidRange
	}
	return nil
}

// Compute loads the range's work logs and the worker directory concurrently
// and aggregates them.
func (s *Service) Compute(ctx context.Context, query Query) (Result, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		logs     []worklog.Entry
		profiles []WorkerProfile
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		logs, err = s.logs.FindInRange(groupCtx, query.StartDate, query.EndDate)
		if err != nil {
			return fmt.Errorf("load work logs: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		profiles, err = s.directory.ListAll(groupCtx)
		if err != nil {
			return fmt.Errorf("load workers: %w", err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := ComputePayroll(query, logs, profiles)
	if s.recorder != nil {
		s.recorder.RecordPayroll(len(logs))
	}
	return result, nil
}
