// cmd/paperflow/app.go
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/term"

	"paperflow/internal/adapters/eventsink"
	"paperflow/internal/adapters/knowledge"
	"paperflow/internal/core/ports"
	"paperflow/internal/core/usecases"
	"paperflow/internal/platform/config"
	"paperflow/internal/platform/httpclient"
	"paperflow/internal/platform/logx"
	"paperflow/internal/platform/metrics"
	"paperflow/internal/platform/registry"
	"paperflow/internal/platform/ui"
	"paperflow/internal/workers"
)

// app agrupa los singletons del proceso: clientes, stores, registry y
// métricas. Se construye una vez por invocación y se cierra al salir.
type app struct {
	cfg       config.Config
	logger    logx.Logger
	metrics   *metrics.Metrics
	registry  *registry.WorkerRegistry
	knowledge ports.KnowledgeStore
	sink      ports.EventSink
	presenter ui.Presenter

	clients       []*httpclient.Client
	metricsServer *http.Server
}

// newApp construye la aplicación a partir de la configuración.
func newApp(cfg config.Config, stdout io.Writer) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  newLogger(cfg),
		metrics: metrics.New(),
	}
	a.presenter = newPresenter(cfg, stdout)

	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	scholar, err := httpclient.New(cfg.ToClientConfig(), a.logger.With("client", "semantic_scholar"), httpclient.WithMetrics(a.metrics))
	if err != nil {
		return nil, err
	}
	hn, err := httpclient.New(cfg.ToHackerNewsClientConfig(), a.logger.With("client", "hacker_news"), httpclient.WithMetrics(a.metrics))
	if err != nil {
		return nil, err
	}
	web, err := httpclient.New(cfg.ToWebsiteClientConfig(), a.logger.With("client", "website"), httpclient.WithMetrics(a.metrics))
	if err != nil {
		return nil, err
	}
	chat, err := httpclient.New(cfg.ToChatClientConfig(), a.logger.With("client", "chat"), httpclient.WithMetrics(a.metrics))
	if err != nil {
		return nil, err
	}
	a.clients = []*httpclient.Client{scholar, hn, web, chat}

	if a.knowledge, err = openKnowledge(cfg); err != nil {
		return nil, err
	}
	if a.sink, err = openSink(cfg); err != nil {
		return nil, err
	}

	a.registry = registry.NewWorkerRegistry(a.logger)
	if err := workers.Register(a.registry, workers.Deps{
		Scholar:     scholar,
		HackerNews:  hn,
		Web:         web,
		Chat:        chat,
		Knowledge:   a.knowledge,
		ChatModel:   cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
	}); err != nil {
		return nil, err
	}
	for name, opts := range cfg.Workers {
		if err := a.registry.Configure(name, registry.Options(opts)); err != nil {
			return nil, err
		}
	}

	if cfg.MetricsAddr != "" {
		a.serveMetrics(cfg.MetricsAddr)
	}

	a.logger.Debug("application ready",
		"workers", len(a.registry.Names()),
		"events_db", cfg.Storage.EventsDB,
		"knowledge_db", cfg.Storage.KnowledgeDB,
	)
	ok = true
	return a, nil
}

// orchestrator construye el orquestador de plan sobre los workers registrados.
func (a *app) orchestrator(plan usecases.Plan) *usecases.PipelineOrchestrator {
	return usecases.NewPipelineOrchestrator(usecases.PipelineOrchestratorOptions{
		Plan:                  plan,
		Resolver:              a.registry,
		Sink:                  a.sink,
		Logger:                a.logger,
		Presenter:             a.presenter,
		Metrics:               a.metrics,
		ConfidenceThreshold:   a.cfg.ConfidenceThreshold,
		DisableConfidenceGate: a.cfg.ConfidenceThreshold == 0,
	})
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.metrics.Registry(), promhttp.HandlerOpts{}))
	a.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Warn("metrics server stopped", "addr", addr, "error", err.Error())
		}
	}()
	a.logger.Info("metrics endpoint enabled", "addr", addr)
}

// Close libera todos los recursos. Es seguro llamarlo con la app a medio construir.
func (a *app) Close() {
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = a.metricsServer.Shutdown(ctx)
		cancel()
	}
	if a.registry != nil {
		if err := a.registry.Close(); err != nil {
			a.logger.Warn("failed to close workers", "error", err.Error())
		}
	}
	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.logger.Warn("failed to close event sink", "error", err.Error())
		}
	}
	if a.knowledge != nil {
		if err := a.knowledge.Close(); err != nil {
			a.logger.Warn("failed to close knowledge store", "error", err.Error())
		}
	}
	for _, c := range a.clients {
		c.Close()
	}
}

// newLogger: bajo la UI pretty sólo se muestran errores salvo en debug.
func newLogger(cfg config.Config) logx.Logger {
	lvl := logx.ParseLevel(cfg.LogLevel)
	if ui.UIMode(cfg.UIMode) == ui.UIModePretty && lvl > logx.LevelDebug {
		return logx.NewSilent()
	}
	return logx.NewWithLevel(lvl)
}

// newPresenter: los spinners sólo se activan cuando stdout es una terminal.
func newPresenter(cfg config.Config, stdout io.Writer) ui.Presenter {
	switch ui.UIMode(cfg.UIMode) {
	case ui.UIModeRaw:
		return ui.NewRawPresenterWithWriter(ui.LogFormatText, stdout)
	case ui.UIModeJSON:
		return ui.NewRawPresenterWithWriter(ui.LogFormatJSON, stdout)
	case ui.UIModeQuiet:
		return ui.NewNoopPresenter()
	}
	if isTerminal(stdout) {
		return ui.NewInteractivePTermPresenter(stdout)
	}
	return ui.NewPTermPresenterWithWriter(stdout)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func openKnowledge(cfg config.Config) (ports.KnowledgeStore, error) {
	if cfg.Storage.KnowledgeDB == "" {
		return knowledge.NewMemory(), nil
	}
	store, err := knowledge.OpenSQLite(cfg.Storage.KnowledgeDB)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func openSink(cfg config.Config) (ports.EventSink, error) {
	switch {
	case !cfg.Storage.StoreEvents:
		return ports.NopEventSink{}, nil
	case cfg.Storage.EventsDB == "":
		return eventsink.NewMemory(), nil
	default:
		sink, err := eventsink.OpenSQLite(cfg.Storage.EventsDB)
		if err != nil {
			return nil, err
		}
		return sink, nil
	}
}
