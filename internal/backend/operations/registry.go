package operations

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownOperation is returned by Create for names nothing registered.
var ErrUnknownOperation = errors.New("unknown operation")

// Registry maps configured command names to operation factories.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]OperationFactory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]OperationFactory),
	}
}

// Register adds a factory under name. Names are unique.
func (r *Registry) Register(name string, factory OperationFactory) error {
	if name == "" {
		return fmt.Errorf("operation name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("operation factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("operation %s is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister is Register for package init, where a failure is a programming error.
func (r *Registry) MustRegister(name string, factory OperationFactory) {
	if err := r.Register(name, factory); err != nil {
		panic(fmt.Sprintf("failed to register %s: %v", name, err))
	}
}

// Create builds the named operation. Unknown names wrap ErrUnknownOperation and list
// what is available.
func (r *Registry) Create(name string, params map[string]any) (Operation, error) {
	r.mu.RLock()
	factory, exists := r.factories[name]
	r.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w %q, available: %s", ErrUnknownOperation, name, strings.Join(r.GetRegisteredNames(), ", "))
	}

	operation, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation %s: %w", name, err)
	}
	return operation, nil
}

// CreateAll builds the configured trailing operations in order.
func (r *Registry) CreateAll(configs []OperationConfig) ([]Operation, error) {
	operations := make([]Operation, 0, len(configs))
	for i, config := range configs {
		operation, err := r.Create(config.Name, config.Params)
		if err != nil {
			return nil, fmt.Errorf("operation at index %d: %w", i, err)
		}
		operations = append(operations, operation)
	}
	return operations, nil
}

func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[name]
	return exists
}

// GetRegisteredNames returns the registered names, sorted.
func (r *Registry) GetRegisteredNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds every operation this package registers in init.
var DefaultRegistry = NewRegistry()
