package service_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/catalog-entity-provider/internal/adapters/catalog/rdb"
	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/service"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
	"github.com/olusolaa/catalog-entity-provider/internal/render"
	"github.com/olusolaa/catalog-entity-provider/mocks"
)

var (
	acctA = domain.Account{AccountID: "111111111111", RoleARN: "arn:aws:iam::111111111111:role/x", DefaultRegion: "us-east-1"}
	acctB = domain.Account{AccountID: "222222222222", RoleARN: "arn:aws:iam::222222222222:role/x", DefaultRegion: "eu-west-1"}
)

type staticAccounts []domain.Account

func (s staticAccounts) Accounts(context.Context) ([]domain.Account, error) {
	return s, nil
}

// recordingSink captures every mutation and fails while failNext is set.
type recordingSink struct {
	mutations []domain.Mutation
	failNext  error
}

func (s *recordingSink) Type() string { return "recording" }

func (s *recordingSink) ApplyMutation(_ context.Context, m domain.Mutation) error {
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	s.mutations = append(s.mutations, m)
	return nil
}

func (s *recordingSink) last() domain.Mutation {
	return s.mutations[len(s.mutations)-1]
}

func clusters(acct domain.Account, names ...string) []domain.SourcedRecord {
	out := make([]domain.SourcedRecord, 0, len(names))
	for _, n := range names {
		rec := domain.RawRecord{}
		if n != "" {
			rec["name"] = n
		}
		out = append(out, domain.SourcedRecord{
			Record:  rec,
			Context: domain.RenderContext{AccountID: acct.AccountID, Region: acct.DefaultRegion},
		})
	}
	return out
}

func names(refs []domain.EntityRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Name
	}
	return out
}

func entityNames(entities []domain.Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.Metadata.Name
	}
	return out
}

func newTestProvider(t *testing.T, client *mocks.MockInventoryClient, sink *recordingSink, accounts ...domain.Account) *service.Provider {
	t.Helper()
	renderer, err := render.NewEKSRenderer(render.EKSOptions{})
	require.NoError(t, err)
	client.On("Type").Return("fake").Maybe()

	p, err := service.NewProvider(service.ProviderOptions{
		Name:     "eks",
		Client:   client,
		Accounts: staticAccounts(accounts),
		Renderer: renderer,
		Sink:     sink,
		Logger:   mocks.NewTestLogger(),
	})
	require.NoError(t, err)
	return p
}

func TestProvider_TwoTicksRemoveMissingRefs(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.MockInventoryClient)
	sink := &recordingSink{}
	p := newTestProvider(t, client, sink, acctA)

	client.On("ListRecords", mock.Anything, acctA).Return(clusters(acctA, "a", "b"), nil).Once()
	client.On("ListRecords", mock.Anything, acctA).Return(clusters(acctA, "b", "c"), nil).Once()

	first := p.Tick(ctx)
	require.Equal(t, domain.TickSucceeded, first.Status)
	assert.Equal(t, []string{"111111111111-us-east-1-a", "111111111111-us-east-1-b"}, entityNames(sink.last().Upsert))
	assert.Empty(t, sink.last().Removed)

	second := p.Tick(ctx)
	require.Equal(t, domain.TickSucceeded, second.Status)
	assert.Equal(t, []string{"111111111111-us-east-1-b", "111111111111-us-east-1-c"}, entityNames(sink.last().Upsert))
	assert.Equal(t, []string{"111111111111-us-east-1-a"}, names(sink.last().Removed))
	assert.Equal(t, []string{"111111111111-us-east-1-a"}, names(second.Removed))
	assert.Equal(t, domain.StateIdle, p.State())
	client.AssertExpectations(t)
}

func TestProvider_SubmissionFailureKeepsPreviousRefs(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.MockInventoryClient)
	sink := &recordingSink{}
	p := newTestProvider(t, client, sink, acctA)

	client.On("ListRecords", mock.Anything, acctA).Return(clusters(acctA, "a", "b"), nil).Once()
	client.On("ListRecords", mock.Anything, acctA).Return(clusters(acctA, "c"), nil).Twice()

	require.Equal(t, domain.TickSucceeded, p.Tick(ctx).Status)
	before := p.PreviousRefs()

	sink.failNext = stderrors.New("catalog unavailable")
	failed := p.Tick(ctx)
	assert.Equal(t, domain.TickFailed, failed.Status)
	assert.Equal(t, domain.StateSubmitting, failed.FailedIn)
	assert.True(t, errors.IsSubmissionError(failed.Err))
	assert.Equal(t, before, p.PreviousRefs())

	retried := p.Tick(ctx)
	require.Equal(t, domain.TickSucceeded, retried.Status)
	assert.Equal(t, []string{"111111111111-us-east-1-a", "111111111111-us-east-1-b"}, names(sink.last().Removed),
		"the retry must diff against the last submitted state")
}

func TestProvider_MalformedRecordSkipped(t *testing.T) {
	client := new(mocks.MockInventoryClient)
	sink := &recordingSink{}
	p := newTestProvider(t, client, sink, acctA)

	client.On("ListRecords", mock.Anything, acctA).Return(clusters(acctA, "a", "", "c"), nil)

	res := p.Tick(context.Background())
	require.Equal(t, domain.TickSucceeded, res.Status)
	assert.Equal(t, 3, res.RecordsFetched)
	assert.Len(t, sink.last().Upsert, 2)
	require.Len(t, res.RenderFailures, 1)
	assert.True(t, errors.IsRenderError(res.RenderFailures[0].Err))
	assert.Equal(t, acctA.AccountID, res.RenderFailures[0].AccountID)
}

func TestProvider_AccountFailureIsContained(t *testing.T) {
	client := new(mocks.MockInventoryClient)
	sink := &recordingSink{}
	p := newTestProvider(t, client, sink, acctA, acctB)

	apiErr := errors.New(errors.CodeAPIAuthError, "access denied")
	client.On("ListRecords", mock.Anything, acctA).Return(nil, apiErr)
	client.On("ListRecords", mock.Anything, acctB).Return(clusters(acctB, "x"), nil)

	res := p.Tick(context.Background())
	require.Equal(t, domain.TickSucceeded, res.Status)
	require.Len(t, res.AccountFailures, 1)
	assert.Equal(t, acctA.AccountID, res.AccountFailures[0].AccountID)
	assert.True(t, errors.IsAPIError(res.AccountFailures[0].Err))
	assert.Equal(t, []string{"222222222222-eu-west-1-x"}, entityNames(sink.last().Upsert))
}

func TestProvider_AccountsMergedInOrder(t *testing.T) {
	client := new(mocks.MockInventoryClient)
	sink := &recordingSink{}
	p := newTestProvider(t, client, sink, acctB, acctA)

	client.On("ListRecords", mock.Anything, acctB).After(20*time.Millisecond).Return(clusters(acctB, "z"), nil)
	client.On("ListRecords", mock.Anything, acctA).Return(clusters(acctA, "y"), nil)

	res := p.Tick(context.Background())
	require.Equal(t, domain.TickSucceeded, res.Status)
	assert.Equal(t, []string{"111111111111-us-east-1-y", "222222222222-eu-west-1-z"}, entityNames(sink.last().Upsert))
}

func TestProvider_DuplicateRefLaterWins(t *testing.T) {
	client := new(mocks.MockInventoryClient)
	sink := &recordingSink{}
	p := newTestProvider(t, client, sink, acctA)

	recs := clusters(acctA, "dup", "dup")
	recs[0].Record["version"] = "1.28"
	recs[1].Record["version"] = "1.29"
	client.On("ListRecords", mock.Anything, acctA).Return(recs, nil)

	res := p.Tick(context.Background())
	require.Equal(t, domain.TickSucceeded, res.Status)
	require.Len(t, sink.last().Upsert, 1)
	assert.Equal(t, "1.29", sink.last().Upsert[0].Spec["version"])
}

func TestProvider_CancelledTickDoesNotSubmit(t *testing.T) {
	client := new(mocks.MockInventoryClient)
	sink := &recordingSink{}
	p := newTestProvider(t, client, sink, acctA)

	ctx, cancel := context.WithCancel(context.Background())
	client.On("ListRecords", mock.Anything, acctA).Run(func(mock.Arguments) { cancel() }).Return(clusters(acctA, "a"), nil)

	res := p.Tick(ctx)
	assert.Equal(t, domain.TickFailed, res.Status)
	assert.Equal(t, domain.StateFetching, res.FailedIn)
	assert.Equal(t, errors.CodeTimeout, errors.GetCode(res.Err))
	assert.Empty(t, sink.mutations)
	assert.Empty(t, p.PreviousRefs())
}

func TestProvider_AccountSourceFailure(t *testing.T) {
	source := new(mocks.MockAccountSource)
	source.On("Accounts", mock.Anything).Return(nil, stderrors.New("state file missing"))
	client := new(mocks.MockInventoryClient)
	client.On("Type").Return("fake").Maybe()
	sink := new(mocks.MockCatalogSink)
	recorder := new(mocks.MockTickRecorder)
	recorder.On("ObserveTick", mock.MatchedBy(func(r domain.TickResult) bool {
		return r.Status == domain.TickFailed && r.FailedIn == domain.StateFetching
	})).Once()

	renderer, err := render.NewEKSRenderer(render.EKSOptions{})
	require.NoError(t, err)
	p, err := service.NewProvider(service.ProviderOptions{
		Name: "eks", Client: client, Accounts: source, Renderer: renderer,
		Sink: sink, Logger: mocks.NewTestLogger(), Recorder: recorder,
	})
	require.NoError(t, err)

	res := p.Tick(context.Background())
	assert.Equal(t, errors.CodeAccountSourceError, errors.GetCode(res.Err))
	sink.AssertNotCalled(t, "ApplyMutation", mock.Anything, mock.Anything)
	recorder.AssertExpectations(t)
}

// failingReaderSink holds nothing it can list.
type failingReaderSink struct {
	recordingSink
}

func (s *failingReaderSink) ListEntities(context.Context, string) ([]domain.Entity, error) {
	return nil, stderrors.New("database is locked")
}

func newStoreProvider(t *testing.T, client *mocks.MockInventoryClient, sink *rdb.Sink) *service.Provider {
	t.Helper()
	renderer, err := render.NewEKSRenderer(render.EKSOptions{})
	require.NoError(t, err)
	p, err := service.NewProvider(service.ProviderOptions{
		Name:     "eks",
		Client:   client,
		Accounts: staticAccounts{acctA},
		Renderer: renderer,
		Sink:     sink,
		Logger:   mocks.NewTestLogger(),
	})
	require.NoError(t, err)
	return p
}

func TestProvider_RestartRemovesEntitiesFromEarlierInstance(t *testing.T) {
	ctx := context.Background()
	sink, err := rdb.Open("sqlite:file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	client := new(mocks.MockInventoryClient)
	client.On("Type").Return("fake").Maybe()
	client.On("ListRecords", mock.Anything, acctA).Return(clusters(acctA, "a", "b"), nil).Once()
	client.On("ListRecords", mock.Anything, acctA).Return(clusters(acctA, "b"), nil).Once()

	first := newStoreProvider(t, client, sink)
	require.Equal(t, domain.TickSucceeded, first.Tick(ctx).Status)

	restarted := newStoreProvider(t, client, sink)
	res := restarted.Tick(ctx)
	require.Equal(t, domain.TickSucceeded, res.Status)
	assert.Equal(t, []string{"111111111111-us-east-1-a"}, names(res.Removed))

	held, err := sink.ListEntities(ctx, "eks")
	require.NoError(t, err)
	assert.Equal(t, []string{"111111111111-us-east-1-b"}, entityNames(held))
	assert.Equal(t, []string{"111111111111-us-east-1-b"}, names(restarted.PreviousRefs()))
	client.AssertExpectations(t)
}

func TestProvider_SeedFailureDoesNotSubmit(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.MockInventoryClient)
	client.On("Type").Return("fake").Maybe()
	client.On("ListRecords", mock.Anything, acctA).Return(clusters(acctA, "a"), nil).Once()

	sink := &failingReaderSink{}
	renderer, err := render.NewEKSRenderer(render.EKSOptions{})
	require.NoError(t, err)
	p, err := service.NewProvider(service.ProviderOptions{
		Name: "eks", Client: client, Accounts: staticAccounts{acctA}, Renderer: renderer,
		Sink: sink, Logger: mocks.NewTestLogger(),
	})
	require.NoError(t, err)

	res := p.Tick(ctx)
	assert.Equal(t, domain.TickFailed, res.Status)
	assert.Equal(t, domain.StateDiffing, res.FailedIn)
	assert.Equal(t, errors.CodeStoreError, errors.GetCode(res.Err))
	assert.Empty(t, sink.mutations)
}

func TestProvider_EmptySnapshotRemovesEverything(t *testing.T) {
	ctx := context.Background()
	client := new(mocks.MockInventoryClient)
	sink := &recordingSink{}
	p := newTestProvider(t, client, sink, acctA)

	client.On("ListRecords", mock.Anything, acctA).Return(clusters(acctA, "a"), nil).Once()
	client.On("ListRecords", mock.Anything, acctA).Return(nil, nil).Once()

	require.Equal(t, domain.TickSucceeded, p.Tick(ctx).Status)
	res := p.Tick(ctx)
	require.Equal(t, domain.TickSucceeded, res.Status)
	assert.Empty(t, sink.last().Upsert)
	assert.Equal(t, []string{"111111111111-us-east-1-a"}, names(sink.last().Removed))
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := service.NewProvider(service.ProviderOptions{Name: "eks"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))

	_, err = service.NewProvider(service.ProviderOptions{})
	assert.Error(t, err)
}
