package door

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds every configured door controller by ID.
//
// Doors are registered once at startup from configuration and live for
// the whole process; there is no persistence behind the registry.
//
// All public methods are thread-safe.
type Registry struct {
	mu     sync.RWMutex
	doors  map[string]*Controller
	logger Logger
}

// NewRegistry creates an empty door registry.
func NewRegistry() *Registry {
	return &Registry{
		doors:  make(map[string]*Controller),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Add registers a controller. Returns ErrDoorExists on a duplicate ID.
func (r *Registry) Add(c *Controller) error {
	if c == nil {
		return fmt.Errorf("door: nil controller")
	}
	if c.ID() == "" {
		return fmt.Errorf("door: controller has empty id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.doors[c.ID()]; exists {
		return fmt.Errorf("%w: %s", ErrDoorExists, c.ID())
	}
	r.doors[c.ID()] = c

	r.logger.Info("door registered", "door_id", c.ID())
	return nil
}

// Get retrieves a controller by ID.
// Returns ErrDoorNotFound if the door does not exist.
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.doors[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDoorNotFound, id)
	}
	return c, nil
}

// List returns all controllers sorted by ID.
func (r *Registry) List() []*Controller {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doors := make([]*Controller, 0, len(r.doors))
	for _, c := range r.doors {
		doors = append(doors, c)
	}
	sort.Slice(doors, func(i, j int) bool { return doors[i].ID() < doors[j].ID() })
	return doors
}

// IDs returns all door IDs sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.doors))
	for id := range r.doors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of registered doors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.doors)
}

// ShutdownAll drives every door to rest, in ID order. Failures are
// logged per door and do not stop the sweep.
func (r *Registry) ShutdownAll() {
	for _, c := range r.List() {
		if err := c.Shutdown(); err != nil {
			r.logger.Error("door shutdown failed", "door_id", c.ID(), "error", err)
			continue
		}
		r.logger.Debug("door shut down", "door_id", c.ID())
	}
}
