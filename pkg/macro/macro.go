package macro

import (
	"context"
	"errors"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

var ErrMacroNotFound = errors.New("macro not found")

// Macro expands one wiki macro call into an HTML fragment.
type Macro interface {
	Name() string
	Expand(ctx context.Context, content string) (string, error)
}

type Registry struct {
	mu     sync.RWMutex
	macros map[string]Macro
}

func NewRegistry() *Registry {
	return &Registry{macros: make(map[string]Macro)}
}

func (r *Registry) Register(m Macro) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.macros[m.Name()]; exists {
		log.Warnf("macro %s registered twice, replacing previous registration", m.Name())
	}
	r.macros[m.Name()] = m
}

func (r *Registry) Get(name string) (Macro, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.macros[name]
	if !ok {
		return nil, ErrMacroNotFound
	}
	return m, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.macros))
	for name := range r.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand runs the named macro with the raw argument string.
func (r *Registry) Expand(ctx context.Context, name string, content string) (string, error) {
	m, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return m.Expand(ctx, content)
}
