// Package health tracks the dependencies the service needs to answer requests.
package health

import (
	"context"
	"sort"
	"sync"
)

// Checker reports whether a dependency is available
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CheckerFunc adapts a function to Checker
type CheckerFunc func(ctx context.Context) error

// HealthCheck calls f
func (f CheckerFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}

// Registry manages named checkers
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
	}
}

// Register adds or replaces a checker
func (r *Registry) Register(name string, checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Unregister removes a checker
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.checkers, name)
}

// List returns the registered names in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HealthCheckAll runs every checker concurrently and returns each result by name
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	r.mu.RLock()
	checkers := make(map[string]Checker, len(r.checkers))
	for name, c := range r.checkers {
		checkers[name] = c
	}
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]error, len(checkers))
	)
	for name, c := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.HealthCheck(ctx)
			mu.Lock()
			results[name] = err
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// Healthy reports whether every result is nil
func Healthy(results map[string]error) bool {
	for _, err := range results {
		if err != nil {
			return false
		}
	}
	return true
}
