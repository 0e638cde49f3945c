package factory

import (
	"Go2NetSentry/internal/config"
	"Go2NetSentry/internal/model"
	"fmt"
	"log"
	"sort"
)

// ControllerFactory builds the network-controller collaborator from config.
type ControllerFactory func(cfg *config.Config) (model.Controller, error)

// WriterFactory builds a report writer from its definition.
type WriterFactory func(def config.WriterDef) (model.Writer, error)

var (
	controllers = make(map[string]ControllerFactory)
	writers     = make(map[string]WriterFactory)
)

// RegisterController registers a controller type with its factory function.
func RegisterController(name string, factory ControllerFactory) {
	if _, exists := controllers[name]; exists {
		panic(fmt.Sprintf("controller type '%s' already registered", name))
	}
	controllers[name] = factory
}

// RegisterWriter registers a writer type with its factory function.
func RegisterWriter(name string, factory WriterFactory) {
	if _, exists := writers[name]; exists {
		panic(fmt.Sprintf("writer type '%s' already registered", name))
	}
	writers[name] = factory
}

// NewController creates the controller selected by cfg.Controller.Type.
func NewController(cfg *config.Config) (model.Controller, error) {
	factory, ok := controllers[cfg.Controller.Type]
	if !ok {
		return nil, fmt.Errorf("unknown controller type: '%s' (registered: %v)", cfg.Controller.Type, registered(controllers))
	}
	ctrl, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating controller type '%s': %w", cfg.Controller.Type, err)
	}
	log.Printf("Controller '%s' created.", cfg.Controller.Type)
	return ctrl, nil
}

// NewWriters creates every enabled writer. A writer that fails to build is
// skipped with a warning so one unavailable sink does not stop detection.
func NewWriters(cfg *config.Config) []model.Writer {
	out := make([]model.Writer, 0, len(cfg.Writers))
	for _, def := range cfg.Writers {
		if !def.Enabled {
			continue
		}
		factory, ok := writers[def.Type]
		if !ok {
			log.Printf("Warning: unknown writer type '%s' in config, skipping.", def.Type)
			continue
		}
		w, err := factory(def)
		if err != nil {
			log.Printf("Warning: failed to create writer type '%s': %v, skipping.", def.Type, err)
			continue
		}
		out = append(out, w)
		log.Printf("Writer '%s' created.", w.Name())
	}
	return out
}

func registered[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
