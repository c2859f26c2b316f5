package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ImportFile is the YAML document accepted by the import command:
//
//	farms:
//	  - name: Fazenda Boa Vista
//	    city: Patos de Minas
//	services:
//	  - name: Colheita
//	    price: 12.5
//	workers:
//	  - name: Ana
//	    registered: true
//	    registeredAt: 2024-03-01
//	    numberOfDependents: 2
type ImportFile struct {
	Farms    []importFarm    `yaml:"farms"`
	Services []importService `yaml:"services"`
	Workers  []importWorker  `yaml:"workers"`
}

type importFarm struct {
	Name   string `yaml:"name"`
	Owner  string `yaml:"owner"`
	City   string `yaml:"city"`
	Active *bool  `yaml:"active"`
}

type importService struct {
	Name   string  `yaml:"name"`
	Price  float64 `yaml:"price"`
	Active *bool   `yaml:"active"`
}

type importWorker struct {
	Name         string     `yaml:"name"`
	Active       *bool      `yaml:"active"`
	Registered   bool       `yaml:"registered"`
	RegisteredAt *time.Time `yaml:"registeredAt"`
	Dependents   int        `yaml:"numberOfDependents"`
}

type ImportResult struct {
	Farms    int      `json:"farms"`
	Services int      `json:"services"`
	Workers  int      `json:"workers"`
	Skipped  []string `json:"skipped"`
}

func ParseImport(r io.Reader) (ImportFile, error) {
	var file ImportFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return ImportFile{}, fmt.Errorf("parse import file: %w", err)
	}
	if err := file.validate(); err != nil {
		return ImportFile{}, err
	}
	return file, nil
}

func (f ImportFile) validate() error {
	for i, farm := range f.Farms {
		if strings.TrimSpace(farm.Name) == "" {
			return fmt.Errorf("farms[%d]: name is required", i)
		}
	}
	for i, service := range f.Services {
		if strings.TrimSpace(service.Name) == "" {
			return fmt.Errorf("services[%d]: name is required", i)
		}
		if service.Price < 0 {
			return fmt.Errorf("services[%d]: price must not be negative", i)
		}
	}
	for i, worker := range f.Workers {
		if strings.TrimSpace(worker.Name) == "" {
			return fmt.Errorf("workers[%d]: name is required", i)
		}
		if worker.Dependents < 0 {
			return fmt.Errorf("workers[%d]: numberOfDependents must not be negative", i)
		}
	}
	return nil
}

func activeOrDefault(value *bool) bool {
	if value == nil {
		return true
	}
	return *value
}

// Import writes the file's records. Workers whose name already exists are
// skipped and reported instead of failing the whole import.
func Import(ctx context.Context, store StoreAPI, file ImportFile) (ImportResult, error) {
	result := ImportResult{Skipped: []string{}}
	for _, farm := range file.Farms {
		if _, err := store.CreateFarm(ctx, Farm{
			Name:   strings.TrimSpace(farm.Name),
			Owner:  strings.TrimSpace(farm.Owner),
			City:   strings.TrimSpace(farm.City),
			Active: activeOrDefault(farm.Active),
		}); err != nil {
			return result, fmt.Errorf("import farm %q: %w", farm.Name, err)
		}
		result.Farms++
	}
	for _, service := range file.Services {
		if _, err := store.CreateService(ctx, Service{
			Name:   strings.TrimSpace(service.Name),
			Price:  service.Price,
			Active: activeOrDefault(service.Active),
		}); err != nil {
			return result, fmt.Errorf("import service %q: %w", service.Name, err)
		}
		result.Services++
	}
	for _, worker := range file.Workers {
		_, err := store.CreateWorker(ctx, Worker{
			Name:         strings.TrimSpace(worker.Name),
			Active:       activeOrDefault(worker.Active),
			Registered:   worker.Registered,
			RegisteredAt: worker.RegisteredAt,
			Dependents:   worker.Dependents,
		})
		if errors.Is(err, ErrDuplicate) {
			result.Skipped = append(result.Skipped, "worker:"+worker.Name)
			continue
		}
		if err != nil {
			return result, fmt.Errorf("import worker %q: %w", worker.Name, err)
		}
		result.Workers++
	}
	return result, nil
}
