package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/naka-gawa/github-report/internal/domain"
)

// ReportBuilder builds the report for one repository URL.
type ReportBuilder interface {
	Build(ctx context.Context, rawURL string) (*domain.Report, error)
}

// ReportSink receives each finished report.
type ReportSink interface {
	EnsureHeader() error
	Append(r *domain.Report) error
}

// ReportCollector keeps finished reports for the console table.
type ReportCollector interface {
	Add(r *domain.Report)
}

// Driver runs the batch: one report per input row, in input order.
type Driver struct {
	builder    ReportBuilder
	sink       ReportSink
	collector  ReportCollector
	aggregator *Aggregator
	logger     *log.Logger
}

// NewDriver creates a new Driver instance.
func NewDriver(builder ReportBuilder, sink ReportSink, collector ReportCollector, logger *log.Logger) *Driver {
	return &Driver{
		builder:    builder,
		sink:       sink,
		collector:  collector,
		aggregator: NewAggregator(logger),
		logger:     logger,
	}
}

// Run processes urls sequentially. Invalid and failed rows are logged and
// skipped; nothing is written for them. Run stops early only when the sink
// cannot be written or ctx is cancelled, returning the statistics so far.
func (d *Driver) Run(ctx context.Context, urls []string) (domain.RunStats, error) {
	run := domain.RunStats{Rows: len(urls)}
	var reports []*domain.Report

	if err := d.sink.EnsureHeader(); err != nil {
		return run, fmt.Errorf("failed to prepare output: %w", err)
	}

	for i, rawURL := range urls {
		d.logger.Info("analyzing repository", "row", fmt.Sprintf("%d/%d", i+1, len(urls)), "url", rawURL)

		report, err := d.builder.Build(ctx, rawURL)
		switch {
		case err == nil:
		case errors.Is(err, ErrInvalidURL):
			run.Invalid++
			d.logger.Error("skipping row", "err", err)
			continue
		case ctx.Err() != nil:
			return d.aggregator.Aggregate(run, reports), ctx.Err()
		default:
			run.Failed++
			d.logger.Error("skipping row", "err", err)
			continue
		}

		if err := d.sink.Append(report); err != nil {
			return d.aggregator.Aggregate(run, reports), fmt.Errorf("failed to write report for %s: %w", rawURL, err)
		}
		d.collector.Add(report)
		reports = append(reports, report)
		d.logger.Info("report generated", "repository", report.Name)
	}

	return d.aggregator.Aggregate(run, reports), nil
}
