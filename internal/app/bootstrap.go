package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/viper"

	"github.com/olusolaa/catalog-entity-provider/internal/adapters/catalog/httpsink"
	"github.com/olusolaa/catalog-entity-provider/internal/adapters/catalog/rdb"
	"github.com/olusolaa/catalog-entity-provider/internal/adapters/catalog/stdout"
	"github.com/olusolaa/catalog-entity-provider/internal/adapters/discovery"
	"github.com/olusolaa/catalog-entity-provider/internal/adapters/platform/aws"
	"github.com/olusolaa/catalog-entity-provider/internal/adapters/platform/aws/account"
	"github.com/olusolaa/catalog-entity-provider/internal/adapters/platform/aws/eks"
	awserrors "github.com/olusolaa/catalog-entity-provider/internal/adapters/platform/aws/errors"
	"github.com/olusolaa/catalog-entity-provider/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/catalog-entity-provider/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/catalog-entity-provider/internal/adapters/platform/rest"
	"github.com/olusolaa/catalog-entity-provider/internal/adapters/state"
	"github.com/olusolaa/catalog-entity-provider/internal/adapters/state/tfstate"
	"github.com/olusolaa/catalog-entity-provider/internal/config"
	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	"github.com/olusolaa/catalog-entity-provider/internal/core/service"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
	"github.com/olusolaa/catalog-entity-provider/internal/log"
	"github.com/olusolaa/catalog-entity-provider/internal/metrics"
	"github.com/olusolaa/catalog-entity-provider/internal/render"
	jsonreporter "github.com/olusolaa/catalog-entity-provider/internal/reporting/json"
	"github.com/olusolaa/catalog-entity-provider/internal/reporting/text"
	"github.com/olusolaa/catalog-entity-provider/internal/schedule"
)

type options struct {
	logger    ports.Logger
	awsConfig shared.ConfigSource
	out       io.Writer
}

// Option customises how the application is assembled.
type Option func(*options)

// WithLogger replaces the logger built from settings.
func WithLogger(l ports.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAWSConfig replaces the SDK default credential chain.
func WithAWSConfig(c shared.ConfigSource) Option {
	return func(o *options) { o.awsConfig = c }
}

// WithOutput redirects the stdout sink and the reporters.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

func BuildApplicationFromViper(ctx context.Context, v *viper.Viper, opts ...Option) (*Application, error) {
	cfg, err := config.Load(ctx, v)
	if err != nil {
		return nil, err
	}
	app, err := BuildApplication(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	if v.ConfigFileUsed() != "" {
		app.Logger.Debugf(ctx, "Using configuration file: %s", v.ConfigFileUsed())
	} else {
		app.Logger.Debugf(ctx, "No configuration file found, using defaults/env/flags.")
	}
	return app, nil
}

// BuildApplication assembles the sink, reporter and providers. On failure
// anything already opened, such as the rdb sink, is closed again.
func BuildApplication(ctx context.Context, cfg *config.Config, opts ...Option) (*Application, error) {
	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = log.NewLogger(log.Config{Level: cfg.Settings.LogLevel, Format: cfg.Settings.LogFormat})
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "logger initialization failed")
		}
	}
	logger.Infof(ctx, "Logger initialized (Level: %s, Format: %s)", cfg.Settings.LogLevel, cfg.Settings.LogFormat)

	a := &Application{
		Config:    cfg,
		Logger:    logger,
		Registry:  service.NewProviderRegistry(),
		Renderers: make(map[string]ports.Renderer),
		Schedules: make(map[string]schedule.Schedule),
		Metrics:   metrics.NewCollector(),
	}
	fail := func(err error) (*Application, error) {
		if cerr := a.Close(); cerr != nil {
			logger.Warnf(ctx, "Failed to release resources after bootstrap error: %v", cerr)
		}
		return nil, err
	}

	var err error
	if a.Sink, err = a.buildSink(o.out); err != nil {
		return fail(err)
	}
	if a.Reporter, err = buildReporter(cfg.Reporting, o.out, logger); err != nil {
		return fail(err)
	}

	b := &builder{app: a, cfg: cfg, logger: logger, awsConfig: o.awsConfig}
	if cfg.HasAWSProviders() {
		if err := b.buildAWSProviders(ctx); err != nil {
			return fail(err)
		}
	}
	if err := b.buildRESTProviders(); err != nil {
		return fail(err)
	}

	logger.Infof(ctx, "Application bootstrap complete (providers: %v, sink: %s)", a.Registry.Names(), a.Sink.Type())
	return a, nil
}

func (a *Application) buildSink(out io.Writer) (ports.CatalogSink, error) {
	c := a.Config.Catalog
	switch c.Sink {
	case config.SinkHTTP:
		sink, err := httpsink.New(httpsink.Options{
			URL:          c.HTTP.URL,
			Token:        c.HTTP.Token,
			RetryMax:     c.HTTP.RetryMax,
			RetryWaitMin: c.HTTP.RetryWaitMin,
			RetryWaitMax: c.HTTP.RetryWaitMax,
			Timeout:      c.HTTP.Timeout,
			Logger:       a.Logger,
		})
		if err != nil {
			return nil, err
		}
		return sink, nil
	case config.SinkRDB:
		sink, err := rdb.Open(c.RDB.URL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sink.Close)
		return sink, nil
	case config.SinkStdout, "":
		return stdout.New(out), nil
	default:
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("unsupported catalog sink: %s", c.Sink), "Supported: http, rdb, stdout")
	}
}

func buildReporter(cfg config.ReportingConfig, out io.Writer, logger ports.Logger) (ports.Reporter, error) {
	reportLog := logger.WithFields(map[string]any{"component": "reporter", "type": cfg.Format})
	switch cfg.Format {
	case jsonreporter.ReporterTypeJSON:
		return jsonreporter.NewReporterTo(jsonreporter.Config{}, out, reportLog), nil
	case text.ReporterTypeText, "":
		if out == os.Stdout {
			r, err := text.NewReporter(text.Config{NoColor: cfg.NoColor}, reportLog)
			if err != nil {
				return nil, err
			}
			return r, nil
		}
		return text.NewReporterTo(text.Config{NoColor: cfg.NoColor}, out, reportLog), nil
	default:
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("unsupported reporter type: %s", cfg.Format), "Supported: text, json")
	}
}

type builder struct {
	app       *Application
	cfg       *config.Config
	logger    ports.Logger
	awsConfig shared.ConfigSource
}

func (b *builder) accountSource() (ports.AccountSource, error) {
	static := state.NewStaticSource(b.cfg.StaticAccounts())
	if b.cfg.AccountSources.TFState == nil {
		if len(b.cfg.Accounts) == 0 {
			return nil, errors.NewUserFacing(errors.CodeConfigValidation,
				"AWS providers are enabled but no accounts are configured",
				"Add entries under accounts or configure account_sources.tfstate.")
		}
		return static, nil
	}
	discovered, err := tfstate.NewAccountSource(*b.cfg.AccountSources.TFState, b.logger)
	if err != nil {
		return nil, err
	}
	return state.NewMergedSource(static, discovered), nil
}

func (b *builder) buildAWSProviders(ctx context.Context) error {
	accounts, err := b.accountSource()
	if err != nil {
		return err
	}
	configs := b.awsConfig
	if configs == nil {
		factory, err := aws.NewConfigFactory(ctx)
		if err != nil {
			return err
		}
		configs = factory
	}
	errHandler := &awserrors.DefaultErrorHandler{}
	settings := b.cfg.Settings

	if pc := b.cfg.Providers.EKS; pc != nil && pc.Enabled {
		plog := b.logger.WithFields(map[string]any{"provider": config.ProviderEKS})
		client, err := eks.NewClient(eks.Options{
			Configs:      configs,
			Regions:      pc.Regions,
			Limiter:      limiter.New(pc.RequestsPerSecond, plog),
			ErrorHandler: errHandler,
			Logger:       plog,
		})
		if err != nil {
			return err
		}
		renderer, err := render.NewEKSRenderer(render.EKSOptions{
			Owner:       settings.Owner,
			Lifecycle:   settings.Lifecycle,
			Annotations: pc.Annotations,
		})
		if err != nil {
			return errors.Wrap(err, errors.CodeConfigValidation, "failed to build EKS renderer")
		}
		if err := b.register(config.ProviderEKS, client, accounts, renderer, pc.Schedule); err != nil {
			return err
		}
	}

	if pc := b.cfg.Providers.Accounts; pc != nil && pc.Enabled {
		plog := b.logger.WithFields(map[string]any{"provider": config.ProviderAccounts})
		client, err := account.NewClient(account.Options{
			Configs:      configs,
			Limiter:      limiter.New(pc.RequestsPerSecond, plog),
			ErrorHandler: errHandler,
			Logger:       plog,
		})
		if err != nil {
			return err
		}
		renderer, err := render.NewAccountRenderer(render.AccountOptions{
			Owner:       settings.Owner,
			Lifecycle:   settings.Lifecycle,
			Annotations: pc.Annotations,
		})
		if err != nil {
			return errors.Wrap(err, errors.CodeConfigValidation, "failed to build account renderer")
		}
		if err := b.register(config.ProviderAccounts, client, accounts, renderer, pc.Schedule); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) buildRESTProviders() error {
	disc := discovery.New(b.cfg.Discovery)
	for _, pc := range b.cfg.Providers.REST {
		if pc.Disabled {
			continue
		}
		plog := b.logger.WithFields(map[string]any{"provider": pc.Name})
		client, err := rest.NewClient(rest.Config{
			Name:       pc.Name,
			URL:        pc.URL,
			ProxyPath:  pc.ProxyPath,
			Token:      pc.Token,
			AuthScheme: pc.AuthScheme,
			ItemsPath:  pc.ItemsPath,
			Headers:    pc.Headers,
			Timeout:    pc.Timeout,
		}, disc, plog)
		if err != nil {
			return err
		}
		renderer, err := render.NewRecordRenderer(render.RecordOptions{
			Source:           client.Type(),
			Kind:             pc.Kind,
			Type:             pc.Type,
			Owner:            b.cfg.Settings.Owner,
			Lifecycle:        b.cfg.Settings.Lifecycle,
			NameField:        pc.NameField,
			TitleField:       pc.TitleField,
			DescriptionField: pc.DescriptionField,
			AnnotationFields: pc.AnnotationFields,
			SpecFields:       pc.SpecFields,
			Annotations:      pc.Annotations,
		})
		if err != nil {
			return errors.Wrap(err, errors.CodeConfigValidation, fmt.Sprintf("failed to build renderer for '%s'", pc.Name))
		}
		// A REST inventory is a single source; the provider name stands in
		// for the account so records carry a stable origin annotation.
		accounts := state.NewStaticSource([]domain.Account{{AccountID: pc.Name}})
		if err := b.register(pc.Name, client, accounts, renderer, pc.Schedule); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) register(name string, client ports.InventoryClient, accounts ports.AccountSource,
	renderer ports.Renderer, sch schedule.Schedule) error {
	p, err := service.NewProvider(service.ProviderOptions{
		Name:        name,
		Client:      client,
		Accounts:    accounts,
		Renderer:    renderer,
		Sink:        b.app.Sink,
		Logger:      b.logger,
		Recorder:    b.app.Metrics,
		Concurrency: b.cfg.Settings.Concurrency,
	})
	if err != nil {
		return err
	}
	if err := b.app.Registry.Register(p); err != nil {
		return err
	}
	b.app.Renderers[name] = renderer
	b.app.Schedules[name] = sch.WithDefaults()
	b.logger.Infof(context.Background(), "Registered provider %s (client: %s)", name, client.Type())
	return nil
}
