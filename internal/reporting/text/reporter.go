package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	apperrors "github.com/olusolaa/catalog-entity-provider/internal/errors"
)

const ReporterTypeText = "text"

type Config struct {
	NoColor bool `yaml:"no_color" mapstructure:"no_color"`
}

type Reporter struct {
	config Config
	writer io.Writer
	logger ports.Logger
}

func NewReporter(cfg Config, logger ports.Logger) (*Reporter, error) {
	if cfg.NoColor || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
	return NewReporterTo(cfg, os.Stdout, logger), nil
}

func NewReporterTo(cfg Config, w io.Writer, logger ports.Logger) *Reporter {
	return &Reporter{config: cfg, writer: w, logger: logger}
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func (r *Reporter) Report(ctx context.Context, results []domain.TickResult) error {
	if len(results) == 0 {
		fmt.Fprintln(r.writer, "No providers ran.")
		return nil
	}

	sorted := append([]domain.TickResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Provider < sorted[j].Provider })

	tw := tabwriter.NewWriter(r.writer, 0, 8, 2, ' ', 0)
	defer tw.Flush()

	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	fmt.Fprintln(tw, "Catalog Provider Report")
	fmt.Fprintln(tw, "=======================")
	fmt.Fprintln(tw, "Status\tProvider\tRecords\tUpserted\tRemoved\tDuration\tDetails")
	fmt.Fprintln(tw, "------\t--------\t-------\t--------\t-------\t--------\t-------")

	failed := 0
	for _, res := range sorted {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		status := green("[OK]")
		details := ""
		switch {
		case res.Status == domain.TickFailed:
			failed++
			status = red("[FAILED]")
			details = fmt.Sprintf("failed in %s: %s", res.FailedIn, describeErr(res.Err))
		case len(res.AccountFailures) > 0 || len(res.RenderFailures) > 0:
			status = yellow("[PARTIAL]")
			details = fmt.Sprintf("%d account error(s), %d render error(s)", len(res.AccountFailures), len(res.RenderFailures))
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n", status, res.Provider, res.RecordsFetched,
			len(res.Upserted), len(res.Removed), res.Duration.Round(1e6), details)

		for _, f := range res.AccountFailures {
			fmt.Fprintf(tw, "\t  account %s\t\t\t\t\t%s\n", f.AccountID, describeErr(f.Err))
		}
		for _, f := range res.RenderFailures {
			fmt.Fprintf(tw, "\t  record %s/%s\t\t\t\t\t%s\n", f.AccountID, f.Region, describeErr(f.Err))
		}
	}

	fmt.Fprintln(tw, "\nSummary:")
	fmt.Fprintln(tw, "-------")
	fmt.Fprintf(tw, "Providers:\t%d\n", len(sorted))
	fmt.Fprintf(tw, "Succeeded:\t%s\n", green(len(sorted)-failed))
	fmt.Fprintf(tw, "Failed:\t%s\n", red(failed))
	return nil
}

func describeErr(err error) string {
	if err == nil {
		return ""
	}
	if msg, suggestion, ok := apperrors.GetUserFacingMessage(err); ok {
		return fmt.Sprintf("%s (%s)", msg, suggestion)
	}
	return err.Error()
}
