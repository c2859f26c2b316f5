package core

import "context"

type StoreAPI interface {
	ListFarms(ctx context.Context) ([]Farm, error)
	GetFarm(ctx context.Context, id string) (Farm, error)
	CreateFarm(ctx context.Context, farm Farm) (Farm, error)
	UpdateFarm(ctx context.Context, farm Farm) (Farm, error)
	DeleteFarm(ctx context.Context, id string) (Farm, error)

	ListServices(ctx context.Context) ([]Service, error)
	GetService(ctx context.Context, id string) (Service, error)
	CreateService(ctx context.Context, service Service) (Service, error)
	UpdateService(ctx context.Context, service Service) (Service, error)
	DeleteService(ctx context.Context, id string) (Service, error)

	ListWorkers(ctx context.Context) ([]Worker, error)
	GetWorker(ctx context.Context, id string) (Worker, error)
	CreateWorker(ctx context.Context, worker Worker) (Worker, error)
	UpdateWorker(ctx context.Context, worker Worker) (Worker, error)
	DeleteWorker(ctx context.Context, id string) (Worker, error)
}
