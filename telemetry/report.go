package telemetry

import (
	"fmt"
	"strings"
)

// Mode selects the final-table variant: statistics scoped to a resolved
// window, or time-indexed tables over the whole sample stream.
type Mode int

const (
	ModeWindowed Mode = iota
	ModeFullStream
)

// Charts collects the per-domain chart outcomes feeding the report. A
// nil entry means that chart was not rendered and its section is
// skipped.
type Charts struct {
	CPU          *ChartResult
	Memory       *ChartResult
	NetworkRead  *ChartResult
	NetworkWrite *ChartResult
	DiskRead     *ChartResult
	DiskWrite    *ChartResult
}

func (c Charts) networkPair() bool {
	return c.NetworkRead != nil && c.NetworkWrite != nil
}

func (c Charts) diskPair() bool {
	return c.DiskRead != nil && c.DiskWrite != nil
}

// ReportData is everything the composer consumes: the resolved window,
// the per-domain aggregations and the chart outcomes.
type ReportData struct {
	Mode    Mode
	Window  Window
	CPU     Aggregation
	Memory  Aggregation
	Network Aggregation
	Disk    Aggregation
	Charts  Charts
}

func (d *ReportData) aggregations() []Aggregation {
	return []Aggregation{d.CPU, d.Memory, d.Network, d.Disk}
}

// durationKnown gates the statistics table: a windowed report whose
// window never resolved has no duration to scope the statistics to.
func (d *ReportData) durationKnown() bool {
	return d.Mode == ModeWindowed && !d.Window.Unbounded
}

// section is one conditionally emitted fragment of the report. Sections
// are evaluated in declaration order; a false predicate contributes
// nothing, and the surrounding sections close ranks.
type section struct {
	include func(*ReportData) bool
	render  func(*ReportData, *strings.Builder)
}

var sections = []section{
	{
		include: func(d *ReportData) bool { return d.Charts.CPU != nil },
		render:  renderCPUChart,
	},
	{
		include: func(d *ReportData) bool { return d.Charts.Memory != nil },
		render:  renderMemoryChart,
	},
	{
		include: func(d *ReportData) bool { return d.Charts.networkPair() || d.Charts.diskPair() },
		render:  renderIOTableHeader,
	},
	{
		include: func(d *ReportData) bool { return d.Charts.networkPair() },
		render:  renderNetworkIORow,
	},
	{
		include: func(d *ReportData) bool { return d.Charts.diskPair() },
		render:  renderDiskIORow,
	},
	{
		include: func(d *ReportData) bool {
			return d.Mode == ModeFullStream || d.durationKnown()
		},
		render: renderFinalTables,
	},
}

// Compose assembles the markdown report by walking the section sequence
// in its fixed order. With nothing to show it returns the empty string.
func Compose(d *ReportData) string {
	var b strings.Builder
	for _, s := range sections {
		if s.include(d) {
			s.render(d, &b)
		}
	}
	return b.String()
}

func renderCPUChart(d *ReportData, b *strings.Builder) {
	b.WriteString("### CPU Metrics\n\n")
	fmt.Fprintf(b, "![CPU Load](%s)\n\n", d.Charts.CPU.URL)
}

func renderMemoryChart(d *ReportData, b *strings.Builder) {
	b.WriteString("### Memory Metrics\n\n")
	fmt.Fprintf(b, "![Memory Usage](%s)\n\n", d.Charts.Memory.URL)
}

func renderIOTableHeader(d *ReportData, b *strings.Builder) {
	b.WriteString("### IO Metrics\n\n")
	b.WriteString("|                  | Read | Write |\n")
	b.WriteString("| ---              | ---  | ---   |\n")
}

func renderNetworkIORow(d *ReportData, b *strings.Builder) {
	fmt.Fprintf(b, "| Network I/O (MB) | ![Network Read](%s) | ![Network Write](%s) |\n",
		d.Charts.NetworkRead.URL, d.Charts.NetworkWrite.URL)
}

func renderDiskIORow(d *ReportData, b *strings.Builder) {
	fmt.Fprintf(b, "| Disk I/O (MB) | ![Disk Read](%s) | ![Disk Write](%s) |\n",
		d.Charts.DiskRead.URL, d.Charts.DiskWrite.URL)
}

func renderFinalTables(d *ReportData, b *strings.Builder) {
	if d.Mode == ModeFullStream {
		for _, agg := range d.aggregations() {
			renderDetailTable(agg, b)
		}
		return
	}
	renderStatisticsTable(d, b)
}

// renderStatisticsTable emits the combined max/avg table covering every
// domain that produced a summary, prefixed by the measured duration.
func renderStatisticsTable(d *ReportData, b *strings.Builder) {
	b.WriteString("\n### Runtime Statistics\n\n")
	fmt.Fprintf(b, "Total duration: %ds\n\n", d.Window.Duration)

	b.WriteString("| Domain | MaxValue | AvgValue |\n")
	b.WriteString("| ---    | ---      | ---      |\n")
	for _, agg := range d.aggregations() {
		for _, row := range agg.SummaryRows() {
			fmt.Fprintf(b, "| %s | %s | %s |\n", row.Label, row.Max, row.Avg)
		}
	}
}

// renderDetailTable emits one domain's per-sample table with trailing
// Max and Avg rows. Empty domains contribute nothing.
func renderDetailTable(agg Aggregation, b *strings.Builder) {
	if agg.Empty() {
		return
	}

	fmt.Fprintf(b, "\n### %s Details\n\n", agg.Domain.Title())

	header := agg.DetailHeader()
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")

	rule := make([]string, len(header))
	for i := range rule {
		rule[i] = "---"
	}
	b.WriteString("| " + strings.Join(rule, " | ") + " |\n")

	for _, row := range agg.DetailRows() {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
}
