package rdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

func newTestSink(t *testing.T) *Sink {
	t.Helper()
	s, err := Open("sqlite:file:" + t.Name() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func cluster(name string) domain.Entity {
	return domain.Entity{
		APIVersion: domain.DefaultAPIVersion,
		Kind:       domain.KindResource,
		Metadata: domain.EntityMetadata{
			Name:        name,
			Namespace:   domain.DefaultNamespace,
			Annotations: map[string]string{domain.AnnotationK8sAuthProvider: "aws"},
		},
		Spec: map[string]any{"type": "eks-cluster"},
	}
}

func TestSink_ApplyAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestSink(t)

	require.NoError(t, s.ApplyMutation(ctx, domain.Mutation{Provider: "eks", Upsert: []domain.Entity{cluster("b"), cluster("a")}}))
	require.NoError(t, s.ApplyMutation(ctx, domain.Mutation{Provider: "accounts", Upsert: []domain.Entity{cluster("z")}}))

	got, err := s.ListEntities(ctx, "eks")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Metadata.Name)
	assert.Equal(t, "aws", got[0].Metadata.Annotations[domain.AnnotationK8sAuthProvider])

	all, err := s.ListEntities(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSink_UpsertAndRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestSink(t)

	require.NoError(t, s.ApplyMutation(ctx, domain.Mutation{Provider: "eks", Upsert: []domain.Entity{cluster("a"), cluster("b")}}))

	updated := cluster("b")
	updated.Spec["version"] = "1.29"
	require.NoError(t, s.ApplyMutation(ctx, domain.Mutation{
		Provider: "eks",
		Upsert:   []domain.Entity{updated, cluster("c")},
		Removed:  []domain.EntityRef{cluster("a").Ref()},
	}))

	got, err := s.ListEntities(ctx, "eks")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Metadata.Name)
	assert.Equal(t, "1.29", got[0].Spec["version"])
	assert.Equal(t, "c", got[1].Metadata.Name)

	n, err := s.CountMutations(ctx, "eks")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSink_RemoveOnlyTouchesOwnProvider(t *testing.T) {
	ctx := context.Background()
	s := newTestSink(t)

	require.NoError(t, s.ApplyMutation(ctx, domain.Mutation{Provider: "accounts", Upsert: []domain.Entity{cluster("shared")}}))
	require.NoError(t, s.ApplyMutation(ctx, domain.Mutation{Provider: "eks", Removed: []domain.EntityRef{cluster("shared").Ref()}}))

	got, err := s.ListEntities(ctx, "accounts")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestOpenFromURL_UnsupportedScheme(t *testing.T) {
	_, err := Open("postgres://localhost/catalog")
	require.Error(t, err)
	assert.Equal(t, errors.CodeStoreError, errors.GetCode(err))
}
