package services

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fyrsmithlabs/doctord/internal/lifecycle"
	"github.com/fyrsmithlabs/doctord/internal/orchestrator"
	"github.com/fyrsmithlabs/doctord/internal/registry"
	"github.com/fyrsmithlabs/doctord/internal/store"
)

// Registry provides access to all doctord services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Providers() *registry.Registry
	Orchestrator() *orchestrator.Orchestrator
	Trigger() *lifecycle.Trigger
	Store() store.Store
	Metrics() *prometheus.Registry
}

// Options configures the registry with service instances.
type Options struct {
	Providers    *registry.Registry
	Orchestrator *orchestrator.Orchestrator
	Trigger      *lifecycle.Trigger
	Store        store.Store
	Metrics      *prometheus.Registry
}

// serviceRegistry is the concrete implementation of Registry.
type serviceRegistry struct {
	providers    *registry.Registry
	orchestrator *orchestrator.Orchestrator
	trigger      *lifecycle.Trigger
	store        store.Store
	metrics      *prometheus.Registry
}

// NewRegistry creates a new service registry.
func NewRegistry(opts Options) Registry {
	return &serviceRegistry{
		providers:    opts.Providers,
		orchestrator: opts.Orchestrator,
		trigger:      opts.Trigger,
		store:        opts.Store,
		metrics:      opts.Metrics,
	}
}

func (r *serviceRegistry) Providers() *registry.Registry          { return r.providers }
func (r *serviceRegistry) Orchestrator() *orchestrator.Orchestrator { return r.orchestrator }
func (r *serviceRegistry) Trigger() *lifecycle.Trigger            { return r.trigger }
func (r *serviceRegistry) Store() store.Store                     { return r.store }
func (r *serviceRegistry) Metrics() *prometheus.Registry          { return r.metrics }
