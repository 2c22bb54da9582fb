// Package telemetry turns the raw samples buffered by the collector
// daemon into a markdown resource report: it resolves the execution
// window the report is scoped to, reduces each resource domain to
// plotted series and summary statistics, renders charts through the
// remote chart endpoint, and composes the final section sequence.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"runmeter.sh/stats"
)

// ReporterConfig configures one report generation. Construct a Reporter
// per report; nothing is shared between runs.
type ReporterConfig struct {
	// StoreURL is the collector daemon's query interface base URL.
	StoreURL string

	// ChartURL is the chart endpoint base URL.
	ChartURL string

	// Theme styles chart axes: light or dark.
	Theme string

	// WindowSource scopes the report to an execution window. Nil means
	// full-stream mode: every sample is in scope and the final tables
	// are per-sample.
	WindowSource WindowSource

	// MemoryAvailable adds the available-memory series next to usage.
	MemoryAvailable bool
}

// Reporter runs the fetch, aggregate, chart and compose pipeline.
type Reporter struct {
	cfg    ReporterConfig
	store  *StoreClient
	charts *ChartService
}

// NewReporter wires a reporter from its configuration.
func NewReporter(cfg ReporterConfig) *Reporter {
	return &Reporter{
		cfg:    cfg,
		store:  NewStoreClient(cfg.StoreURL),
		charts: NewChartService(cfg.ChartURL, cfg.Theme),
	}
}

// Generate produces the markdown report. Per-domain failures only drop
// that domain's sections; anything unexpected is recovered and reported
// as an error with an absent report, so the surrounding job can always
// carry on.
func (r *Reporter) Generate(ctx context.Context) (report string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			report = ""
			err = fmt.Errorf("report generation panicked: %v", rec)
		}
	}()

	if err := r.store.TriggerCollect(ctx); err != nil {
		slog.Warn("Final collect trigger failed, reporting buffered samples only", "error", err)
	}

	window, mode := r.resolveWindow(ctx)
	data := &ReportData{Mode: mode, Window: window}

	// Each pipeline fills its own disjoint ReportData fields, and owns
	// its failures: a fetch error empties that domain and the others
	// proceed.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { r.cpuPipeline(gctx, data); return nil })
	g.Go(func() error { r.memoryPipeline(gctx, data); return nil })
	g.Go(func() error { r.networkPipeline(gctx, data); return nil })
	g.Go(func() error { r.diskPipeline(gctx, data); return nil })
	if err := g.Wait(); err != nil {
		return "", err
	}

	return Compose(data), nil
}

// resolveWindow turns the configured window source into the report scope.
// A source that cannot resolve degrades to an unbounded window with
// unknown duration: charts still cover everything, while duration-gated
// sections stay out.
func (r *Reporter) resolveWindow(ctx context.Context) (Window, Mode) {
	if r.cfg.WindowSource == nil {
		return FullStreamWindow(), ModeFullStream
	}

	w, err := r.cfg.WindowSource.ResolveWindow(ctx)
	if err != nil {
		if errors.Is(err, ErrWindowUnresolved) {
			slog.Warn("Execution window unresolved, reporting without duration")
		} else {
			slog.Warn("Execution window lookup failed, reporting without duration", "error", err)
		}
		return FullStreamWindow(), ModeWindowed
	}
	slog.Debug("Execution window resolved",
		"start", stats.FromMillis(w.Start),
		"duration_sec", w.Duration)
	return w, ModeWindowed
}

func (r *Reporter) cpuPipeline(ctx context.Context, d *ReportData) {
	samples, err := r.store.CPU(ctx)
	if err != nil {
		slog.Error("CPU fetch failed, omitting domain", "error", err)
	}

	d.CPU = AggregateCPU(samples, d.Window)
	if d.CPU.Empty() {
		return
	}
	d.Charts.CPU = r.charts.StackedArea(ctx, d.CPU.AxisLabel, d.CPU.Series)
}

func (r *Reporter) memoryPipeline(ctx context.Context, d *ReportData) {
	samples, err := r.store.Memory(ctx)
	if err != nil {
		slog.Error("Memory fetch failed, omitting domain", "error", err)
	}

	d.Memory = AggregateMemory(samples, d.Window, r.cfg.MemoryAvailable)
	if d.Memory.Empty() {
		return
	}
	d.Charts.Memory = r.charts.StackedArea(ctx, d.Memory.AxisLabel, d.Memory.Series)
}

func (r *Reporter) networkPipeline(ctx context.Context, d *ReportData) {
	samples, err := r.store.Network(ctx)
	if err != nil {
		slog.Error("Network fetch failed, omitting domain", "error", err)
	}

	d.Network = AggregateNetwork(samples, d.Window)
	if d.Network.Empty() {
		return
	}
	d.Charts.NetworkRead = r.charts.Line(ctx, d.Network.AxisLabel, d.Network.Series[0])
	d.Charts.NetworkWrite = r.charts.Line(ctx, d.Network.AxisLabel, d.Network.Series[1])
}

func (r *Reporter) diskPipeline(ctx context.Context, d *ReportData) {
	samples, err := r.store.Disk(ctx)
	if err != nil {
		slog.Error("Disk fetch failed, omitting domain", "error", err)
	}

	d.Disk = AggregateDisk(samples, d.Window)
	if d.Disk.Empty() {
		return
	}
	d.Charts.DiskRead = r.charts.Line(ctx, d.Disk.AxisLabel, d.Disk.Series[0])
	d.Charts.DiskWrite = r.charts.Line(ctx, d.Disk.AxisLabel, d.Disk.Series[1])
}
