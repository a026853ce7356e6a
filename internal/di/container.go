// Package di wires the oracled services together.
package di

import (
	"errors"
	"io"
	"sort"
	"sync"
)

// Container is the dependency injection container.
// It manages service registration and resolution.
type Container struct {
	mu       sync.RWMutex
	services map[string]interface{}
	builders map[string]Builder

	// closers holds built services that own resources, in build order
	closers []namedCloser
}

type namedCloser struct {
	name   string
	closer io.Closer
}

// Builder is a function that creates a service instance.
type Builder func(c *Container) (interface{}, error)

// New creates a new dependency injection container.
func New() *Container {
	return &Container{
		services: make(map[string]interface{}),
		builders: make(map[string]Builder),
	}
}

// Register registers a service instance. The container does not close
// registered instances.
func (c *Container) Register(name string, service interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
}

// RegisterBuilder registers a builder function for lazy instantiation.
func (c *Container) RegisterBuilder(name string, builder Builder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders[name] = builder
}

// Get retrieves a service by name, building it on first use. Builders may
// resolve their own dependencies through the container.
func (c *Container) Get(name string) (interface{}, error) {
	c.mu.RLock()
	service, exists := c.services[name]
	builder, hasBuilder := c.builders[name]
	c.mu.RUnlock()

	if exists {
		return service, nil
	}
	if !hasBuilder {
		return nil, errors.New("service not found: " + name)
	}

	// The lock is not held while building so a builder can call Get.
	service, err := builder(c)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.services[name]; ok {
		// lost a concurrent build
		if closer, ok := service.(io.Closer); ok && closer != nil {
			closer.Close()
		}
		return existing, nil
	}
	c.services[name] = service
	if closer, ok := service.(io.Closer); ok && closer != nil {
		c.closers = append(c.closers, namedCloser{name: name, closer: closer})
	}
	return service, nil
}

// MustGet retrieves a service or panics if not found.
func (c *Container) MustGet(name string) interface{} {
	service, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return service
}

// Has checks if a service is registered.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.services[name]
	if exists {
		return true
	}
	_, exists = c.builders[name]
	return exists
}

// ServiceNames returns all registered service names, sorted.
func (c *Container) ServiceNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make(map[string]bool)
	for name := range c.services {
		names[name] = true
	}
	for name := range c.builders {
		names[name] = true
	}

	result := make([]string, 0, len(names))
	for name := range names {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Close closes every built service that implements io.Closer, most recently
// built first, and forgets all built instances. Builders stay registered.
func (c *Container) Close() error {
	c.mu.Lock()
	closers := c.closers
	c.closers = nil
	for _, nc := range closers {
		delete(c.services, nc.name)
	}
	c.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].closer.Close(); err != nil {
			errs = append(errs, errors.New(closers[i].name+": "+err.Error()))
		}
	}
	return errors.Join(errs...)
}

// Service names constants for type-safe access.
const (
	ServiceConfig    = "config"
	ServiceClock     = "clock"
	ServiceDatabase  = "database"
	ServiceCustody   = "custody"
	ServiceMetrics   = "metrics"
	ServiceHost      = "host"
	ServiceVerifier  = "auth.verifier"
	ServiceRPCServer = "rpc.server"
	ServiceFeeder    = "feeder"
)
