package payroll

import (
	"context"

	"farmoffice/internal/domain/core"
)

type WorkerLister interface {
	ListWorkers(ctx context.Context) ([]core.Worker, error)
}

// CoreDirectory exposes the worker registry as payroll profiles. Inactive
// workers are included so past periods still resolve.
type CoreDirectory struct {
	Workers WorkerLister
}

func NewCoreDirectory(workers WorkerLister) CoreDirectory {
	return CoreDirectory{Workers: workers}
}

func (d CoreDirectory) ListAll(ctx context.Context) ([]WorkerProfile, error) {
	workers, err := d.Workers.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}
	profiles := make([]WorkerProfile, 0, len(workers))
	for _, worker := range workers {
		profiles = append(profiles, WorkerProfile{
			Name:               worker.Name,
			IsRegistered:       worker.Registered,
			NumberOfDependents: worker.Dependents,
		})
	}
	return profiles, nil
}
