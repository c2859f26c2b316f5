package reports

import (
	"context"
	"errors"
	"fmt"

	"farmoffice/internal/domain/worklog"
)

var ErrInvalidDate = errors.New("reports: date must use YYYY-MM-DD")

type WorkLogReader interface {
	FindInRange(ctx context.Context, startDate, endDate string) ([]worklog.Entry, error)
	FindByMonth(ctx context.Context, year, month int) ([]worklog.Entry, error)
}

type DailyReport struct {
	Date    string          `json:"date"`
	Entries []worklog.Entry `json:"entries"`
	Totals  Totals          `json:"totals"`
}

type MonthlyReport struct {
	Year   int          `json:"year"`
	Month  int          `json:"month"`
	Days   []DaySummary `json:"days"`
	Totals Totals       `json:"totals"`
}

type Service struct {
	Logs WorkLogReader
}

func NewService(logs WorkLogReader) *Service {
	return &Service{Logs: logs}
}

func (s *Service) Daily(ctx context.Context, date string) (DailyReport, error) {
	if !worklog.ValidDate(date) {
		return DailyReport{}, ErrInvalidDate
	}
	entries, err := s.Logs.FindInRange(ctx, date, date)
	if err != nil {
		return DailyReport{}, fmt.Errorf("load day %s: %w", date, err)
	}
	if entries == nil {
		entries = []worklog.Entry{}
	}
	return DailyReport{Date: date, Entries: entries, Totals: Totalize(entries)}, nil
}

func (s *Service) Monthly(ctx context.Context, year, month int) (MonthlyReport, error) {
	if _, err := worklog.MonthPrefix(year, month); err != nil {
		return MonthlyReport{}, err
	}
	entries, err := s.Logs.FindByMonth(ctx, year, month)
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("load month %04d-%02d: %w", year, month, err)
	}
	return MonthlyReport{
		Year:   year,
		Month:  month,
		Days:   GroupByDay(entries),
		Totals: Totalize(entries),
	}, nil
}
