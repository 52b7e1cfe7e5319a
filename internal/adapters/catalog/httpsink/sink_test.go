package httpsink

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
	"github.com/olusolaa/catalog-entity-provider/mocks"
)

func sampleMutation() domain.Mutation {
	return domain.Mutation{
		Provider: "eks",
		Upsert: []domain.Entity{{
			APIVersion: domain.DefaultAPIVersion,
			Kind:       domain.KindResource,
			Metadata:   domain.EntityMetadata{Name: "123456789012-us-east-1-demo", Namespace: "default"},
			Spec:       map[string]any{"type": "eks-cluster"},
		}},
		Removed: []domain.EntityRef{{Kind: domain.KindResource, Namespace: "default", Name: "old"}},
	}
}

func newTestSink(t *testing.T, url string, retryMax int) *Sink {
	t.Helper()
	s, err := New(Options{
		URL:          url,
		Token:        "catalog-token",
		RetryMax:     retryMax,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
		Logger:       mocks.NewTestLogger(),
	})
	require.NoError(t, err)
	return s
}

func TestApplyMutation_FirstSubmissionIsFull(t *testing.T) {
	var bodies []string
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(raw))
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := newTestSink(t, srv.URL, 0)
	require.NoError(t, s.ApplyMutation(context.Background(), sampleMutation()))
	require.NoError(t, s.ApplyMutation(context.Background(), sampleMutation()))
	require.Len(t, bodies, 2)

	assert.Equal(t, "Bearer catalog-token", auth)
	assert.JSONEq(t, `{
		"type": "full",
		"provider": "eks",
		"entities": [{
			"entity": {
				"apiVersion": "backstage.io/v1alpha1",
				"kind": "Resource",
				"metadata": {"name": "123456789012-us-east-1-demo", "namespace": "default"},
				"spec": {"type": "eks-cluster"}
			},
			"locationKey": "catalog-provider:eks"
		}]
	}`, bodies[0])
	assert.JSONEq(t, `{
		"type": "delta",
		"provider": "eks",
		"added": [{
			"entity": {
				"apiVersion": "backstage.io/v1alpha1",
				"kind": "Resource",
				"metadata": {"name": "123456789012-us-east-1-demo", "namespace": "default"},
				"spec": {"type": "eks-cluster"}
			},
			"locationKey": "catalog-provider:eks"
		}],
		"removed": [{"entityRef": "resource:default/old"}]
	}`, bodies[1])
}

func TestApplyMutation_FullUntilAccepted(t *testing.T) {
	var types []string
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var payload struct {
			Type string `json:"type"`
		}
		_ = json.Unmarshal(raw, &payload)
		types = append(types, payload.Type)
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := newTestSink(t, srv.URL, 0)
	require.Error(t, s.ApplyMutation(context.Background(), sampleMutation()))
	require.NoError(t, s.ApplyMutation(context.Background(), sampleMutation()))
	require.NoError(t, s.ApplyMutation(context.Background(), sampleMutation()))

	other := sampleMutation()
	other.Provider = "accounts"
	require.NoError(t, s.ApplyMutation(context.Background(), other))

	assert.Equal(t, []string{"full", "full", "delta", "full"}, types)
}

func TestApplyMutation_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, newTestSink(t, srv.URL, 3).ApplyMutation(context.Background(), sampleMutation()))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestApplyMutation_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid entity"}`))
	}))
	defer srv.Close()

	err := newTestSink(t, srv.URL, 2).ApplyMutation(context.Background(), sampleMutation())
	require.Error(t, err)
	assert.True(t, errors.IsSubmissionError(err))
}

func TestApplyMutation_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestSink(t, srv.URL, 1).ApplyMutation(context.Background(), sampleMutation())
	require.Error(t, err)
	assert.True(t, errors.IsSubmissionError(err))
}

func TestNew_RequiresURL(t *testing.T) {
	_, err := New(Options{Logger: mocks.NewTestLogger()})
	assert.Equal(t, errors.CodeConfigValidation, errors.GetCode(err))
}
