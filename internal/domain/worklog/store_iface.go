package worklog

import "context"

type StoreAPI interface {
	CreateBatch(ctx context.Context, entries []Entry) ([]Entry, error)
	FindInRange(ctx context.Context, startDate, endDate string) ([]Entry, error)
	FindByMonth(ctx context.Context, year, month int) ([]Entry, error)
	Delete(ctx context.Context, id string) (Entry, error)
}
