package domain

import "time"

// Mutation is a full-replace delta submitted to the catalog in one call.
type Mutation struct {
	Provider string
	Upsert   []Entity
	Removed  []EntityRef
}

type TickState string

const (
	StateIdle       TickState = "Idle"
	StateFetching   TickState = "Fetching"
	StateRendering  TickState = "Rendering"
	StateDiffing    TickState = "Diffing"
	StateSubmitting TickState = "Submitting"
)

type TickStatus string

const (
	TickSucceeded TickStatus = "SUCCEEDED"
	TickFailed    TickStatus = "FAILED"
)

type AccountFailure struct {
	AccountID string
	Region    string
	Err       error
}

type RenderFailure struct {
	AccountID string
	Region    string
	Err       error
}

// TickResult summarises one fetch-render-diff-submit cycle.
type TickResult struct {
	Provider        string
	Status          TickStatus
	FailedIn        TickState
	StartedAt       time.Time
	Duration        time.Duration
	RecordsFetched  int
	Upserted        []EntityRef
	Removed         []EntityRef
	AccountFailures []AccountFailure
	RenderFailures  []RenderFailure
	Err             error
}
