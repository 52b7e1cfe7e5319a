package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

const defaultConcurrency = 4

type ProviderOptions struct {
	Name        string
	Client      ports.InventoryClient
	Accounts    ports.AccountSource
	Renderer    ports.Renderer
	Sink        ports.CatalogSink
	Logger      ports.Logger
	Recorder    ports.TickRecorder
	Concurrency int
	Now         func() time.Time
}

// Provider synchronises one external inventory into the catalog. Each Tick
// walks Fetching, Rendering, Diffing and Submitting and returns to Idle.
//
// Callers must not run Tick concurrently on the same instance; the scheduler
// guarantees this.
type Provider struct {
	name        string
	client      ports.InventoryClient
	accounts    ports.AccountSource
	renderer    ports.Renderer
	sink        ports.CatalogSink
	logger      ports.Logger
	recorder    ports.TickRecorder
	concurrency int
	now         func() time.Time

	state        domain.TickState
	previousRefs refSet
	seeded       bool
}

func NewProvider(opts ProviderOptions) (*Provider, error) {
	if opts.Name == "" {
		return nil, errors.New(errors.CodeConfigValidation, "provider name cannot be empty")
	}
	if opts.Client == nil {
		return nil, errors.Newf(errors.CodeConfigValidation, "provider '%s': inventory client cannot be nil", opts.Name)
	}
	if opts.Accounts == nil {
		return nil, errors.Newf(errors.CodeConfigValidation, "provider '%s': account source cannot be nil", opts.Name)
	}
	if opts.Renderer == nil {
		return nil, errors.Newf(errors.CodeConfigValidation, "provider '%s': renderer cannot be nil", opts.Name)
	}
	if opts.Sink == nil {
		return nil, errors.Newf(errors.CodeConfigValidation, "provider '%s': catalog sink cannot be nil", opts.Name)
	}
	if opts.Logger == nil {
		return nil, errors.Newf(errors.CodeConfigValidation, "provider '%s': logger cannot be nil", opts.Name)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Provider{
		name:         opts.Name,
		client:       opts.Client,
		accounts:     opts.Accounts,
		renderer:     opts.Renderer,
		sink:         opts.Sink,
		logger:       opts.Logger.WithFields(map[string]any{"provider": opts.Name}),
		recorder:     opts.Recorder,
		concurrency:  opts.Concurrency,
		now:          opts.Now,
		state:        domain.StateIdle,
		previousRefs: refSet{},
	}, nil
}

func (p *Provider) Name() string {
	return p.name
}

// State is the phase the current tick is in, or Idle between ticks.
func (p *Provider) State() domain.TickState {
	return p.state
}

// PreviousRefs returns the refs committed by the last successful submission,
// or the refs loaded from the sink before the first one.
func (p *Provider) PreviousRefs() []domain.EntityRef {
	return p.previousRefs.sorted()
}

func (p *Provider) Tick(ctx context.Context) (result domain.TickResult) {
	started := p.now()
	result = domain.TickResult{Provider: p.name, StartedAt: started}
	defer func() {
		p.state = domain.StateIdle
		result.Duration = p.now().Sub(started)
		if p.recorder != nil {
			p.recorder.ObserveTick(result)
		}
	}()

	p.logger.Debugf(ctx, "Tick started")

	p.state = domain.StateFetching
	records, err := p.fetch(ctx, &result)
	if err != nil {
		return p.fail(ctx, result, err)
	}
	result.RecordsFetched = len(records)

	p.state = domain.StateRendering
	entities := p.render(ctx, records, &result)
	if err := ctxErr(ctx, "rendering"); err != nil {
		return p.fail(ctx, result, err)
	}

	p.state = domain.StateDiffing
	if err := p.seedPrevious(ctx); err != nil {
		return p.fail(ctx, result, err)
	}
	upsert, removed := Diff(p.previousRefs, entities)

	p.state = domain.StateSubmitting
	if err := ctxErr(ctx, "submission"); err != nil {
		return p.fail(ctx, result, err)
	}
	mutation := domain.Mutation{Provider: p.name, Upsert: upsert, Removed: removed}
	if err := p.sink.ApplyMutation(ctx, mutation); err != nil {
		if !errors.IsSubmissionError(err) {
			err = errors.Rewrap(err, errors.CodeSubmissionError,
				fmt.Sprintf("catalog sink '%s' rejected mutation", p.sink.Type()))
		}
		return p.fail(ctx, result, err)
	}

	p.previousRefs = newRefSet(refsOf(upsert)...)
	result.Status = domain.TickSucceeded
	result.Upserted = refsOf(upsert)
	result.Removed = removed
	p.logger.Infof(ctx, "Tick succeeded: %d upserted, %d removed, %d account failures, %d render failures",
		len(upsert), len(removed), len(result.AccountFailures), len(result.RenderFailures))
	return result
}

// seedPrevious loads the refs a sink already holds for this provider, once
// per instance, so entities submitted before a restart can still be removed.
func (p *Provider) seedPrevious(ctx context.Context) error {
	if p.seeded {
		return nil
	}
	reader, ok := p.sink.(ports.CatalogReader)
	if !ok {
		p.seeded = true
		return nil
	}
	stored, err := reader.ListEntities(ctx, p.name)
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreError,
			fmt.Sprintf("failed to load entities held by catalog sink '%s'", p.sink.Type()))
	}
	p.previousRefs = newRefSet(refsOf(stored)...)
	p.seeded = true
	p.logger.Debugf(ctx, "Seeded %d previously submitted refs from sink", len(p.previousRefs))
	return nil
}

func (p *Provider) fail(ctx context.Context, result domain.TickResult, err error) domain.TickResult {
	result.Status = domain.TickFailed
	result.FailedIn = p.state
	result.Err = err
	p.logger.Errorf(ctx, err, "Tick failed in state %s; previous catalog state kept", p.state)
	return result
}

// fetch lists records for every account. Accounts are queried in parallel
// and merged in account order so the record sequence does not depend on
// scheduling. A failing account contributes no records.
func (p *Provider) fetch(ctx context.Context, result *domain.TickResult) ([]domain.SourcedRecord, error) {
	accounts, err := p.accounts.Accounts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeAccountSourceError, "failed to load accounts")
	}
	p.logger.Debugf(ctx, "Fetching %s records for %d accounts", p.client.Type(), len(accounts))

	slots := make([][]domain.SourcedRecord, len(accounts))
	failures := make([]error, len(accounts))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, acct := range accounts {
		g.Go(func() error {
			if ctx.Err() != nil {
				failures[i] = ctx.Err()
				return nil
			}
			records, err := p.client.ListRecords(ctx, acct)
			if err != nil {
				failures[i] = err
				return nil
			}
			slots[i] = records
			return nil
		})
	}
	_ = g.Wait()

	if err := ctxErr(ctx, "fetching"); err != nil {
		return nil, err
	}

	var records []domain.SourcedRecord
	for i, acct := range accounts {
		if failures[i] != nil {
			result.AccountFailures = append(result.AccountFailures, domain.AccountFailure{
				AccountID: acct.AccountID,
				Region:    acct.DefaultRegion,
				Err:       failures[i],
			})
			p.logger.WithFields(map[string]any{"account_id": acct.AccountID}).
				Errorf(ctx, failures[i], "Account skipped for this tick")
			continue
		}
		records = append(records, slots[i]...)
	}
	return records, nil
}

// render converts records to entities, skipping malformed ones. When two
// records render to the same ref the later one wins.
func (p *Provider) render(ctx context.Context, records []domain.SourcedRecord, result *domain.TickResult) []domain.Entity {
	entities := make([]domain.Entity, 0, len(records))
	index := make(map[domain.EntityRef]int, len(records))

	for _, rec := range records {
		e, err := p.renderer.Render(rec.Record, rec.Context)
		if err != nil {
			result.RenderFailures = append(result.RenderFailures, domain.RenderFailure{
				AccountID: rec.Context.AccountID,
				Region:    rec.Context.Region,
				Err:       err,
			})
			p.logger.Warnf(ctx, "Skipping record from account %s region %s: %v", rec.Context.AccountID, rec.Context.Region, err)
			continue
		}

		ref := e.Ref()
		if i, dup := index[ref]; dup {
			p.logger.Warnf(ctx, "Duplicate entity %s from account %s region %s replaces an earlier record", ref, rec.Context.AccountID, rec.Context.Region)
			entities[i] = e
			continue
		}
		index[ref] = len(entities)
		entities = append(entities, e)
	}
	return entities
}

func ctxErr(ctx context.Context, phase string) error {
	if err := ctx.Err(); err != nil {
		return errors.Rewrap(err, errors.CodeTimeout, fmt.Sprintf("tick abandoned during %s", phase))
	}
	return nil
}
