package weather

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-sdk/internal/observability"
)

// Registry holds at most one live Client per API key.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Create builds and registers a client for apiKey, starting background
// refresh when polling is true. Returns ErrDuplicateInstance if apiKey is
// already registered.
func (r *Registry) Create(apiKey string, polling bool, opts ...Option) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[apiKey]; ok {
		return nil, ErrDuplicateInstance
	}

	c := newClient(apiKey, polling, buildOptions(opts))
	if polling {
		if err := c.startPolling(); err != nil {
			return nil, err
		}
	}
	r.clients[apiKey] = c
	observability.ClientsActive.Inc()
	c.logger.Info("weather client created", zap.Bool("polling", polling), zap.Duration("poll_interval", c.pollInterval))
	return c, nil
}

// Delete unregisters the client for apiKey and stops its background refresh.
// Absent keys are ignored. An in-flight fetch is not waited for.
func (r *Registry) Delete(apiKey string) {
	r.mu.Lock()
	c, ok := r.clients[apiKey]
	if ok {
		delete(r.clients, apiKey)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	c.close()
	observability.ClientsActive.Dec()
	c.logger.Info("weather client deleted")
}

// Lookup returns the registered client for apiKey.
func (r *Registry) Lookup(apiKey string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[apiKey]
	return c, ok
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry used by Create and Delete.
func DefaultRegistry() *Registry { return defaultRegistry }

// Create registers a client in the process-wide registry. See Registry.Create.
func Create(apiKey string, polling bool, opts ...Option) (*Client, error) {
	return defaultRegistry.Create(apiKey, polling, opts...)
}

// Delete removes a client from the process-wide registry. See Registry.Delete.
func Delete(apiKey string) {
	defaultRegistry.Delete(apiKey)
}

// Lookup finds a client in the process-wide registry.
func Lookup(apiKey string) (*Client, bool) {
	return defaultRegistry.Lookup(apiKey)
}
