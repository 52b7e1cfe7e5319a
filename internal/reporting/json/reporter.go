package json

import (
	"context"
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const ReporterTypeJSON = "json"

type Config struct{}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	return NewReporterTo(cfg, os.Stdout, logger), nil
}

func NewReporterTo(cfg Config, w io.Writer, logger ports.Logger) *Reporter {
	return &Reporter{config: cfg, writer: w, logger: logger}
}

type jsonReport struct {
	Summary jsonSummary      `json:"summary"`
	Results []jsonTickResult `json:"results"`
}

type jsonSummary struct {
	Providers int `json:"providers"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type jsonTickResult struct {
	Provider        string        `json:"provider"`
	Status          string        `json:"status"`
	FailedIn        string        `json:"failed_in,omitempty"`
	StartedAt       string        `json:"started_at,omitempty"`
	DurationMillis  int64         `json:"duration_ms"`
	RecordsFetched  int           `json:"records_fetched"`
	Upserted        []string      `json:"upserted"`
	Removed         []string      `json:"removed"`
	AccountFailures []jsonFailure `json:"account_failures,omitempty"`
	RenderFailures  []jsonFailure `json:"render_failures,omitempty"`
	ErrorMessage    string        `json:"error_message,omitempty"`
	ErrorCode       string        `json:"error_code,omitempty"`
}

type jsonFailure struct {
	AccountID string `json:"account_id"`
	Region    string `json:"region,omitempty"`
	Error     string `json:"error"`
	Code      string `json:"code"`
}

func (r *Reporter) Report(ctx context.Context, results []domain.TickResult) error {
	report := jsonReport{
		Summary: jsonSummary{Providers: len(results)},
		Results: make([]jsonTickResult, 0, len(results)),
	}

	for _, res := range results {
		if ctx.Err() != nil {
			r.logger.Warnf(ctx, "JSON report generation cancelled.")
			return ctx.Err()
		}

		if res.Status == domain.TickSucceeded {
			report.Summary.Succeeded++
		} else {
			report.Summary.Failed++
		}

		item := jsonTickResult{
			Provider:       res.Provider,
			Status:         string(res.Status),
			DurationMillis: res.Duration.Milliseconds(),
			RecordsFetched: res.RecordsFetched,
			Upserted:       refStrings(res.Upserted),
			Removed:        refStrings(res.Removed),
		}
		if !res.StartedAt.IsZero() {
			item.StartedAt = res.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		}
		if res.Status == domain.TickFailed {
			item.FailedIn = string(res.FailedIn)
		}
		if res.Err != nil {
			item.ErrorMessage = res.Err.Error()
			item.ErrorCode = string(errors.GetCode(res.Err))
		}
		for _, f := range res.AccountFailures {
			item.AccountFailures = append(item.AccountFailures, failure(f.AccountID, f.Region, f.Err))
		}
		for _, f := range res.RenderFailures {
			item.RenderFailures = append(item.RenderFailures, failure(f.AccountID, f.Region, f.Err))
		}
		report.Results = append(report.Results, item)
	}

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		r.logger.Errorf(ctx, err, "Failed to encode JSON report")
		return errors.Wrap(err, errors.CodeInternal, "failed to encode JSON report")
	}

	r.logger.Debugf(ctx, "JSON report successfully generated.")
	return nil
}

func refStrings(refs []domain.EntityRef) []string {
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = ref.String()
	}
	return out
}

func failure(accountID, region string, err error) jsonFailure {
	f := jsonFailure{AccountID: accountID, Region: region, Code: string(errors.GetCode(err))}
	if err != nil {
		f.Error = err.Error()
	}
	return f
}
