package core

import (
	"context"
	"fmt"
	"sync"
)

// memStore is an in-memory StoreAPI used by package tests.
type memStore struct {
	mu       sync.Mutex
	seq      int
	farms    []Farm
	services []Service
	workers  []Worker
}

func (m *memStore) nextID() string {
	m.seq++
	return fmt.Sprintf("id-%d", m.seq)
}

func (m *memStore) ListFarms(context.Context) ([]Farm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Farm(nil), m.farms...), nil
}

func (m *memStore) GetFarm(_ context.Context, id string) (Farm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, farm := range m.farms {
		if farm.ID == id {
			return farm, nil
		}
	}
	return Farm{}, ErrNotFound
}

func (m *memStore) CreateFarm(_ context.Context, farm Farm) (Farm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	farm.ID = m.nextID()
	m.farms = append(m.farms, farm)
	return farm, nil
}

func (m *memStore) UpdateFarm(_ context.Context, farm Farm) (Farm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.farms {
		if m.farms[i].ID == farm.ID {
			m.farms[i] = farm
			return farm, nil
		}
	}
	return Farm{}, ErrNotFound
}

func (m *memStore) DeleteFarm(_ context.Context, id string) (Farm, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, farm := range m.farms {
		if farm.ID == id {
			m.farms = append(m.farms[:i], m.farms[i+1:]...)
			return farm, nil
		}
	}
	return Farm{}, ErrNotFound
}

func (m *memStore) ListServices(context.Context) ([]Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Service(nil), m.services...), nil
}

func (m *memStore) GetService(_ context.Context, id string) (Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, service := range m.services {
		if service.ID == id {
			return service, nil
		}
	}
	return Service{}, ErrNotFound
}

func (m *memStore) CreateService(_ context.Context, service Service) (Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	service.ID = m.nextID()
	m.services = append(m.services, service)
	return service, nil
}

func (m *memStore) UpdateService(_ context.Context, service Service) (Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.services {
		if m.services[i].ID == service.ID {
			m.services[i] = service
			return service, nil
		}
	}
	return Service{}, ErrNotFound
}

func (m *memStore) DeleteService(_ context.Context, id string) (Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, service := range m.services {
		if service.ID == id {
			m.services = append(m.services[:i], m.services[i+1:]...)
			return service, nil
		}
	}
	return Service{}, ErrNotFound
}

func (m *memStore) ListWorkers(context.Context) ([]Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Worker(nil), m.workers...), nil
}

func (m *memStore) GetWorker(_ context.Context, id string) (Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, worker := range m.workers {
		if worker.ID == id {
			return worker, nil
		}
	}
	return Worker{}, ErrNotFound
}

func (m *memStore) CreateWorker(_ context.Context, worker Worker) (Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.workers {
		if existing.Name == worker.Name {
			return Worker{}, ErrDuplicate
		}
	}
	worker.ID = m.nextID()
	m.workers = append(m.workers, worker)
	return worker, nil
}

func (m *memStore) UpdateWorker(_ context.Context, worker Worker) (Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.workers {
		if m.workers[i].ID == worker.ID {
			m.workers[i] = worker
			return worker, nil
		}
	}
	return Worker{}, ErrNotFound
}

func (m *memStore) DeleteWorker(_ context.Context, id string) (Worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, worker := range m.workers {
		if worker.ID == id {
			m.workers = append(m.workers[:i], m.workers[i+1:]...)
			return worker, nil
		}
	}
	return Worker{}, ErrNotFound
}
