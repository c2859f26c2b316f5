package core

import "time"

type Farm struct {
	ID        string    `json:"id" yaml:"-"`
	Name      string    `json:"name" yaml:"name"`
	Owner     string    `json:"owner" yaml:"owner"`
	City      string    `json:"city" yaml:"city"`
	Active    bool      `json:"active" yaml:"active"`
	CreatedAt time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"-"`
}

// Service is a priced kind of field work (harvesting, planting...).
type Service struct {
	ID        string    `json:"id" yaml:"-"`
	Name      string    `json:"name" yaml:"name"`
	Price     float64   `json:"price" yaml:"price"`
	Active    bool      `json:"active" yaml:"active"`
	CreatedAt time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"-"`
}

type Worker struct {
	ID           string     `json:"id" yaml:"-"`
	Name         string     `json:"name" yaml:"name"`
	Active       bool       `json:"active" yaml:"active"`
	Registered   bool       `json:"registered" yaml:"registered"`
	RegisteredAt *time.Time `json:"registeredAt,omitempty" yaml:"registeredAt,omitempty"`
	Dependents   int        `json:"numberOfDependents" yaml:"numberOfDependents"`
	CreatedAt    time.Time  `json:"createdAt" yaml:"-"`
	UpdatedAt    time.Time  `json:"updatedAt" yaml:"-"`
}

const (
	EntityFarm    = "farm"
	EntityService = "service"
	EntityWorker  = "worker"
)
