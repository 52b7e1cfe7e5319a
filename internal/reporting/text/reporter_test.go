package text

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/mocks"
)

func TestReporter_Report(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	r := NewReporterTo(Config{NoColor: true}, &buf, mocks.NewTestLogger())

	err := r.Report(context.Background(), []domain.TickResult{
		{
			Provider: "users", Status: domain.TickFailed, FailedIn: domain.StateSubmitting,
			Err: errors.New("catalog unavailable"),
		},
		{
			Provider: "eks", Status: domain.TickSucceeded, RecordsFetched: 3,
			Upserted: make([]domain.EntityRef, 2), Duration: 1500 * time.Millisecond,
			RenderFailures: []domain.RenderFailure{{AccountID: "123456789012", Region: "us-east-1", Err: errors.New("missing name")}},
		},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[FAILED]")
	assert.Contains(t, out, "failed in Submitting: catalog unavailable")
	assert.Contains(t, out, "[PARTIAL]")
	assert.Contains(t, out, "record 123456789012/us-east-1")
	assert.Contains(t, out, "missing name")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("eks")), bytes.Index(buf.Bytes(), []byte("users")))
}

func TestReporter_Empty(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporterTo(Config{}, &buf, mocks.NewTestLogger())
	require.NoError(t, r.Report(context.Background(), nil))
	assert.Equal(t, "No providers ran.\n", buf.String())
}
