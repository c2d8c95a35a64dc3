// internal/platform/registry/worker_registry_test.go
package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"paperflow/internal/core/domain"
	"paperflow/internal/core/ports"
	perrors "paperflow/internal/platform/errors"
	"paperflow/internal/platform/logx"
	"paperflow/internal/testutil"
)

type stubWorker struct {
	name   string
	closed bool
}

func (s *stubWorker) Name() string { return s.name }

func (s *stubWorker) Run(ctx context.Context, in domain.StageInput) domain.StageResult {
	return domain.Succeeded(s.name, "ok")
}

func (s *stubWorker) Close() error {
	s.closed = true
	return nil
}

func stubFactory(name string, builds *int) WorkerFactory {
	return func(opts Options, logger logx.Logger) (ports.Worker, error) {
		*builds++
		return &stubWorker{name: name}, nil
	}
}

func TestWorkerRegistry_ImplementsResolver(t *testing.T) {
	var _ ports.WorkerResolver = NewWorkerRegistry(testutil.SilentLogger())
}

func TestWorkerRegistry_Register(t *testing.T) {
	r := NewWorkerRegistry(testutil.SilentLogger())
	builds := 0

	err := r.Register("paper_lookup", stubFactory("paper_lookup", &builds), ports.WorkerMetadata{Tools: []string{"semantic_scholar"}})
	testutil.AssertNoError(t, err, "register should succeed")
	testutil.AssertTrue(t, r.Has("paper_lookup"), "worker should be registered")
	testutil.AssertEqual(t, builds, 0, "registration does not build")

	meta, ok := r.Metadata("paper_lookup")
	testutil.AssertTrue(t, ok, "metadata stored")
	testutil.AssertEqual(t, meta.Name, "paper_lookup", "metadata name defaults to the registered name")
}

func TestWorkerRegistry_RegisterInvalid(t *testing.T) {
	r := NewWorkerRegistry(testutil.SilentLogger())
	builds := 0
	factory := stubFactory("a", &builds)

	testutil.AssertError(t, r.Register("", factory, ports.WorkerMetadata{}), "empty name")
	testutil.AssertError(t, r.Register("a", nil, ports.WorkerMetadata{}), "nil factory")
	testutil.AssertNoError(t, r.Register("a", factory, ports.WorkerMetadata{}), "first registration")

	err := r.Register("a", factory, ports.WorkerMetadata{})
	testutil.AssertEqual(t, perrors.KindOf(err), perrors.KindModelConfiguration, "duplicate registration")
}

func TestWorkerRegistry_ResolveCachesInstance(t *testing.T) {
	r := NewWorkerRegistry(testutil.SilentLogger())
	builds := 0
	_ = r.Register("chat", stubFactory("chat", &builds), ports.WorkerMetadata{})

	first, err := r.Resolve("chat")
	testutil.AssertNoError(t, err, "first resolve")
	second, err := r.Resolve("chat")
	testutil.AssertNoError(t, err, "second resolve")

	testutil.AssertTrue(t, first == second, "same instance")
	testutil.AssertEqual(t, builds, 1, "factory called once")
	testutil.AssertEqual(t, r.Usage()["chat"], 2, "usage counted per resolve")
}

func TestWorkerRegistry_ResolveUnknown(t *testing.T) {
	r := NewWorkerRegistry(testutil.SilentLogger())
	builds := 0
	_ = r.Register("b_worker", stubFactory("b_worker", &builds), ports.WorkerMetadata{})
	_ = r.Register("a_worker", stubFactory("a_worker", &builds), ports.WorkerMetadata{})

	_, err := r.Resolve("nope")
	testutil.AssertEqual(t, perrors.KindOf(err), perrors.KindModelConfiguration, "model configuration error")
	testutil.AssertContains(t, err.Error(), `unknown worker "nope"`, "names the worker")
	testutil.AssertContains(t, err.Error(), "available: a_worker, b_worker", "lists the registered names")
}

func TestWorkerRegistry_FactoryError(t *testing.T) {
	r := NewWorkerRegistry(testutil.SilentLogger())
	cause := errors.New("missing api key")
	_ = r.Register("chat", func(Options, logx.Logger) (ports.Worker, error) {
		return nil, cause
	}, ports.WorkerMetadata{})

	_, err := r.Resolve("chat")
	testutil.AssertEqual(t, perrors.KindOf(err), perrors.KindToolNotAvailable, "tool not available")
	testutil.AssertTrue(t, errors.Is(err, cause), "cause preserved")
	testutil.AssertEqual(t, r.Usage()["chat"], 0, "failed builds are not counted")
}

func TestWorkerRegistry_ConfigurePassesOptions(t *testing.T) {
	r := NewWorkerRegistry(testutil.SilentLogger())
	var got Options
	_ = r.Register("chat", func(opts Options, _ logx.Logger) (ports.Worker, error) {
		got = opts
		return &stubWorker{name: "chat"}, nil
	}, ports.WorkerMetadata{})

	testutil.AssertNoError(t, r.Configure("chat", Options{"model": "gpt-4o-mini"}), "configure")
	testutil.AssertError(t, r.Configure("ghost", Options{}), "configure unknown worker")

	_, err := r.Resolve("chat")
	testutil.AssertNoError(t, err, "resolve")
	testutil.AssertEqual(t, got.GetString("model", ""), "gpt-4o-mini", "options reach the factory")
}

func TestWorkerRegistry_NamesSorted(t *testing.T) {
	r := NewWorkerRegistry(testutil.SilentLogger())
	builds := 0
	for _, name := range []string{"website_text", "chat", "paper_lookup"} {
		_ = r.Register(name, stubFactory(name, &builds), ports.WorkerMetadata{})
	}

	testutil.AssertDeepEqual(t, r.Names(), []string{"chat", "paper_lookup", "website_text"}, "sorted names")
}

func TestWorkerRegistry_ResetClosesInstances(t *testing.T) {
	r := NewWorkerRegistry(testutil.SilentLogger())
	builds := 0
	_ = r.Register("a", stubFactory("a", &builds), ports.WorkerMetadata{})

	w, _ := r.Resolve("a")
	testutil.AssertNoError(t, r.Reset(), "reset")
	testutil.AssertTrue(t, w.(*stubWorker).closed, "closer invoked")
	testutil.AssertEqual(t, len(r.Usage()), 0, "usage cleared")

	_, _ = r.Resolve("a")
	testutil.AssertEqual(t, builds, 2, "rebuilt after reset")
	testutil.AssertTrue(t, r.Has("a"), "registrations survive reset")
}

func TestWorkerRegistry_ConcurrentResolve(t *testing.T) {
	r := NewWorkerRegistry(testutil.SilentLogger())
	builds := 0
	_ = r.Register("a", stubFactory("a", &builds), ports.WorkerMetadata{})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Resolve("a")
		}()
	}
	wg.Wait()

	testutil.AssertEqual(t, builds, 1, "built exactly once")
	testutil.AssertEqual(t, r.Usage()["a"], 50, "every resolve counted")
}
