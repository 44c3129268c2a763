package stages

import (
	"fmt"
	"sync"

	"frequency-filters/internal/errs"
)

// All selects every registered stage in registration order.
const All = "all"

// Registry resolves stages by name.
type Registry struct {
	stages map[string]Stage
	order  []string
	mu     sync.RWMutex
}

// NewRegistry registers binarize, enhance and frequency, in the order "all"
// runs them.
func NewRegistry(env Env) (*Registry, error) {
	enhance, err := NewEnhanceStage(env)
	if err != nil {
		return nil, fmt.Errorf("enhance stage: %w", err)
	}

	r := &Registry{stages: make(map[string]Stage)}
	r.Register(NewBinarizeStage(env))
	r.Register(enhance)
	r.Register(NewFrequencyStage(env))
	return r, nil
}

// Register adds s, replacing any stage with the same name.
func (r *Registry) Register(s Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stages == nil {
		r.stages = make(map[string]Stage)
	}
	if _, exists := r.stages[s.Name()]; !exists {
		r.order = append(r.order, s.Name())
	}
	r.stages[s.Name()] = s
}

func (r *Registry) GetStage(name string) (Stage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, exists := r.stages[name]; exists {
		return s, nil
	}
	return nil, fmt.Errorf("unknown stage %q: %w", name, errs.ErrInvalidParameter)
}

func (r *Registry) GetAvailableStages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Resolve returns the named stage, or every stage for All.
func (r *Registry) Resolve(name string) ([]Stage, error) {
	if name != All {
		s, err := r.GetStage(name)
		if err != nil {
			return nil, err
		}
		return []Stage{s}, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stages := make([]Stage, 0, len(r.order))
	for _, n := range r.order {
		stages = append(stages, r.stages[n])
	}
	return stages, nil
}
