package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/olusolaa/catalog-entity-provider/internal/config"
	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	"github.com/olusolaa/catalog-entity-provider/internal/core/service"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
	"github.com/olusolaa/catalog-entity-provider/internal/metrics"
	"github.com/olusolaa/catalog-entity-provider/internal/render"
	"github.com/olusolaa/catalog-entity-provider/internal/schedule"
)

const shutdownGrace = 30 * time.Second

// Application holds the assembled providers and the sink they feed.
type Application struct {
	Config    *config.Config
	Logger    ports.Logger
	Registry  *service.ProviderRegistry
	Renderers map[string]ports.Renderer
	Schedules map[string]schedule.Schedule
	Sink      ports.CatalogSink
	Metrics   *metrics.Collector
	Reporter  ports.Reporter

	closers []func() error
}

func (a *Application) selectProviders(names []string) ([]ports.EntityProvider, error) {
	providers, err := a.Registry.Select(names)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "no providers are enabled",
			"Enable providers.eks, providers.accounts or add providers.rest entries.")
	}
	return providers, nil
}

// Run schedules the selected providers and blocks until ctx is cancelled.
func (a *Application) Run(ctx context.Context, names []string) error {
	providers, err := a.selectProviders(names)
	if err != nil {
		return err
	}

	sched := schedule.New(a.Logger)
	for _, p := range providers {
		if err := sched.Register(p, a.Schedules[p.Name()]); err != nil {
			return err
		}
	}

	if addr := a.Config.Settings.MetricsAddr; addr != "" {
		stop, err := a.serveMetrics(ctx, addr)
		if err != nil {
			return err
		}
		defer stop()
	}

	a.Logger.Infof(ctx, "Starting scheduler for %d provider(s)", len(providers))
	sched.Run(ctx, shutdownGrace)
	a.Logger.Infof(context.Background(), "Scheduler stopped")
	return nil
}

// Once ticks the selected providers a single time and reports the results.
// It fails when any tick failed.
func (a *Application) Once(ctx context.Context, names []string) ([]domain.TickResult, error) {
	providers, err := a.selectProviders(names)
	if err != nil {
		return nil, err
	}

	var timeout time.Duration
	for _, p := range providers {
		if t := a.Schedules[p.Name()].Timeout; t > timeout {
			timeout = t
		}
	}

	results := service.RunOnce(ctx, providers, timeout)
	if err := a.Reporter.Report(ctx, results); err != nil {
		return results, err
	}
	if service.Failed(results) {
		return results, errors.NewUserFacing(errors.CodeInternal, "one or more providers failed",
			"See the report and logs for the failing phase and cause.")
	}
	return results, nil
}

// RenderRecord renders one raw record with the named provider's renderer.
func (a *Application) RenderRecord(name string, rec domain.RawRecord, rc domain.RenderContext) ([]byte, error) {
	r, ok := a.Renderers[name]
	if !ok {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("provider '%s' is not configured", name),
			fmt.Sprintf("Known providers: %v", a.Registry.Names()))
	}
	return render.RenderYAML(r, rec, rc)
}

// ListCatalog returns what the sink holds for a provider; only sinks that
// keep state support it.
func (a *Application) ListCatalog(ctx context.Context, provider string) ([]domain.Entity, error) {
	reader, ok := a.Sink.(ports.CatalogReader)
	if !ok {
		return nil, errors.NewUserFacing(errors.CodeNotImplemented,
			fmt.Sprintf("catalog sink '%s' cannot list entities", a.Sink.Type()),
			"Use catalog.sink: rdb to keep a local catalog.")
	}
	return reader.ListEntities(ctx, provider)
}

func (a *Application) serveMetrics(ctx context.Context, addr string) (func(), error) {
	handler, err := metrics.Handler(a.Metrics)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to register metrics")
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		a.Logger.Infof(ctx, "Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			a.Logger.Errorf(ctx, err, "Metrics server stopped")
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}

func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return stderrors.Join(errs...)
}
