// internal/platform/registry/worker_registry.go
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"paperflow/internal/core/ports"
	"paperflow/internal/platform/errors"
	"paperflow/internal/platform/logx"
)

// WorkerRegistry gestiona el registro y construcción de workers.
// Es una tabla estática nombre → factory que se llena al arrancar; cada
// worker se construye una sola vez y la instancia se reutiliza entre
// ejecuciones. No hay estado global: main crea el registry y lo inyecta.
type WorkerRegistry struct {
	mu        sync.Mutex
	factories map[string]WorkerFactory
	metadata  map[string]ports.WorkerMetadata
	options   map[string]Options
	instances map[string]ports.Worker
	usage     map[string]int
	logger    logx.Logger

	// base se entrega a las factories; cada worker añade su propio scope
	base logx.Logger
}

// WorkerFactory crea una instancia de Worker. Las dependencias compartidas
// (cliente HTTP, knowledge store) las captura la closure al registrar.
type WorkerFactory func(opts Options, logger logx.Logger) (ports.Worker, error)

// NewWorkerRegistry crea un nuevo registry de workers.
func NewWorkerRegistry(logger logx.Logger) *WorkerRegistry {
	if logger == nil {
		logger = logx.New()
	}
	return &WorkerRegistry{
		factories: make(map[string]WorkerFactory),
		metadata:  make(map[string]ports.WorkerMetadata),
		options:   make(map[string]Options),
		instances: make(map[string]ports.Worker),
		usage:     make(map[string]int),
		logger:    logger.With("component", "worker-registry"),
		base:      logger,
	}
}

// Register registra una worker factory con su metadata.
func (r *WorkerRegistry) Register(name string, factory WorkerFactory, meta ports.WorkerMetadata) error {
	const op = "registry.register"

	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return errors.ModelConfiguration(op, "worker name cannot be empty")
	}
	if factory == nil {
		return errors.ModelConfiguration(op, fmt.Sprintf("factory cannot be nil for worker %s", name))
	}
	if _, exists := r.factories[name]; exists {
		return errors.ModelConfiguration(op, fmt.Sprintf("worker %s is already registered", name))
	}

	if meta.Name == "" {
		meta.Name = name
	}
	r.factories[name] = factory
	r.metadata[name] = meta
	r.logger.Debug("worker registered", "name", name, "tools", strings.Join(meta.Tools, ","))

	return nil
}

// Configure asigna opciones a un worker registrado. Solo afecta a
// instancias construidas después de la llamada.
func (r *WorkerRegistry) Configure(name string, opts Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; !exists {
		return r.unknownLocked("registry.configure", name)
	}
	r.options[name] = opts
	return nil
}

// Resolve retorna el worker name, construyéndolo la primera vez.
// Cada llamada incrementa el contador de uso.
func (r *WorkerRegistry) Resolve(name string) (ports.Worker, error) {
	const op = "registry.resolve"

	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.instances[name]; ok {
		r.usage[name]++
		return w, nil
	}

	factory, exists := r.factories[name]
	if !exists {
		return nil, r.unknownLocked(op, name)
	}

	w, err := factory(r.options[name], r.base)
	if err != nil {
		return nil, &errors.Error{
			Kind: errors.KindToolNotAvailable,
			Op:   op,
			Tool: name,
			Msg:  "worker could not be built",
			Err:  err,
		}
	}
	if w == nil {
		return nil, errors.ModelConfiguration(op, fmt.Sprintf("factory for worker %s returned nil", name))
	}

	r.instances[name] = w
	r.usage[name]++
	r.logger.Debug("worker built", "name", name)

	return w, nil
}

// Has indica si name está registrado.
func (r *WorkerRegistry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.factories[name]
	return exists
}

// Names retorna los nombres de todos los workers registrados, ordenados.
func (r *WorkerRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

// Metadata retorna el metadata de un worker.
func (r *WorkerRegistry) Metadata(name string) (ports.WorkerMetadata, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta, exists := r.metadata[name]
	return meta, exists
}

// Usage retorna una copia de los contadores de resolución por worker.
func (r *WorkerRegistry) Usage() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]int, len(r.usage))
	for k, v := range r.usage {
		out[k] = v
	}
	return out
}

// Reset descarta las instancias construidas y los contadores. Los workers
// que implementan ports.Closer se cierran.
func (r *WorkerRegistry) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.closeLocked()
	r.instances = make(map[string]ports.Worker)
	r.usage = make(map[string]int)
	return err
}

// Close cierra los workers construidos.
func (r *WorkerRegistry) Close() error {
	return r.Reset()
}

func (r *WorkerRegistry) closeLocked() error {
	var errs []error
	for name, w := range r.instances {
		closer, ok := w.(ports.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			r.logger.Warn("failed to close worker", "worker", name, "error", err.Error())
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (r *WorkerRegistry) namesLocked() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *WorkerRegistry) unknownLocked(op, name string) error {
	return errors.ModelConfiguration(op, fmt.Sprintf("unknown worker %q (available: %s)",
		name, strings.Join(r.namesLocked(), ", ")))
}
