package sources

import (
	"fmt"

	"github.com/gigapi/gigapi-accidents/config"
	"github.com/gigapi/gigapi-accidents/core"
)

// Registry holds the configured sources in declaration order
type Registry struct {
	sources map[string]Source
	names   []string
}

func NewRegistry(cfgs []config.SourceConfig, deps Deps) (*Registry, error) {
	r := &Registry{sources: make(map[string]Source, len(cfgs))}
	for _, cfg := range cfgs {
		s, err := New(cfg, deps)
		if err != nil {
			return nil, err
		}
		if err := r.Add(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Add(s Source) error {
	if _, ok := r.sources[s.Name()]; ok {
		return fmt.Errorf("duplicate source %q", s.Name())
	}
	r.sources[s.Name()] = s
	r.names = append(r.names, s.Name())
	return nil
}

func (r *Registry) Get(name string) (Source, error) {
	s, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("source %q: %w", name, core.ErrNotFound)
	}
	return s, nil
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}
