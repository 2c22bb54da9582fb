package telemetry

import (
	"fmt"
	"math"

	"runmeter.sh/stats"
)

// Unit selects how a quantity renders in tables.
type Unit int

const (
	UnitPercent Unit = iota
	UnitMegabytes
)

// Chart palette, one color per plotted quantity.
const (
	colorUser      = "#e41a1c"
	colorSystem    = "#377eb8"
	colorActive    = "#4daf4a"
	colorAvailable = "#984ea3"
	colorRead      = "#ff7f00"
	colorWrite     = "#a65628"
)

// Point is one plotted sample. X is the epoch-millisecond timestamp, Y
// the measured value. Values are floored at zero so a bad reading never
// plots below the axis.
type Point struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}

// Series is one plotted quantity of a domain: the labeled chart series
// plus the running statistics reduced in the same pass over the samples.
type Series struct {
	Label  string
	Color  string
	Unit   Unit
	Points []Point
	Max    float64
	Sum    float64
}

// SummaryRow is one line of the combined statistics table.
type SummaryRow struct {
	Label string
	Max   string
	Avg   string
}

// Aggregation is the outcome of reducing one domain's raw samples: the
// plotted series plus everything the report tables need. All series of
// an aggregation share the same x-axis sample set and length.
type Aggregation struct {
	Domain    stats.Domain
	AxisLabel string
	Series    []Series

	// Samples counts the samples that fell inside the window.
	Samples int

	// Origin anchors elapsed-time labels: the window start when the
	// window is bounded, the first retained sample otherwise.
	Origin int64

	usagePct       bool
	capMax, capSum float64
}

type quantitySpec[T any] struct {
	label string
	color string
	unit  Unit
	value func(T) float64
}

type domainSpec[T any] struct {
	domain     stats.Domain
	axisLabel  string
	time       func(T) int64
	quantities []quantitySpec[T]

	// capacity, when set, enables the usage-share bookkeeping applied
	// to the domain's first quantity.
	capacity func(T) float64
}

// reduce drops samples outside the window and reduces the rest to
// plotted series and summary statistics in a single pass.
func reduce[T any](spec domainSpec[T], samples []T, w Window) Aggregation {
	agg := Aggregation{
		Domain:    spec.domain,
		AxisLabel: spec.axisLabel,
		Series:    make([]Series, len(spec.quantities)),
		Origin:    w.Start,
		usagePct:  spec.capacity != nil,
	}
	for i, q := range spec.quantities {
		agg.Series[i] = Series{Label: q.label, Color: q.color, Unit: q.unit}
	}

	for _, s := range samples {
		ts := spec.time(s)
		if !w.Contains(ts) {
			continue
		}
		if agg.Samples == 0 && w.Unbounded {
			agg.Origin = ts
		}
		agg.Samples++

		if spec.capacity != nil {
			if c := floorZero(spec.capacity(s)); c > agg.capMax {
				agg.capMax = c
			}
			agg.capSum += agg.capMax
		}

		for i, q := range spec.quantities {
			v := floorZero(q.value(s))
			agg.Series[i].Points = append(agg.Series[i].Points, Point{X: ts, Y: v})
			if v > agg.Series[i].Max {
				agg.Series[i].Max = v
			}
			agg.Series[i].Sum += v
		}
	}
	return agg
}

// AggregateCPU reduces CPU samples to user and system load series.
func AggregateCPU(samples []stats.CPU, w Window) Aggregation {
	return reduce(domainSpec[stats.CPU]{
		domain:    stats.DomainCPU,
		axisLabel: "CPU Load (%)",
		time:      func(s stats.CPU) int64 { return s.Time },
		quantities: []quantitySpec[stats.CPU]{
			{
				label: "CPU User Load",
				color: colorUser,
				unit:  UnitPercent,
				value: func(s stats.CPU) float64 { return s.UserLoad },
			},
			{
				label: "CPU System Load",
				color: colorSystem,
				unit:  UnitPercent,
				value: func(s stats.CPU) float64 { return s.SystemLoad },
			},
		},
	}, samples, w)
}

// AggregateMemory reduces memory samples to a usage series, optionally
// joined by an available series. Capacity bookkeeping for the usage
// share comes from each sample's total.
func AggregateMemory(samples []stats.Memory, w Window, withAvailable bool) Aggregation {
	quantities := []quantitySpec[stats.Memory]{
		{
			label: "Memory Usage",
			color: colorActive,
			unit:  UnitMegabytes,
			value: func(s stats.Memory) float64 { return s.ActiveMb },
		},
	}
	if withAvailable {
		quantities = append(quantities, quantitySpec[stats.Memory]{
			label: "Memory Available",
			color: colorAvailable,
			unit:  UnitMegabytes,
			value: func(s stats.Memory) float64 { return s.AvailableMb },
		})
	}

	return reduce(domainSpec[stats.Memory]{
		domain:     stats.DomainMemory,
		axisLabel:  "Memory (MB)",
		time:       func(s stats.Memory) int64 { return s.Time },
		quantities: quantities,
		capacity:   func(s stats.Memory) float64 { return s.TotalMb },
	}, samples, w)
}

// AggregateNetwork reduces network samples to read and write series.
func AggregateNetwork(samples []stats.Network, w Window) Aggregation {
	return reduce(domainSpec[stats.Network]{
		domain:    stats.DomainNetwork,
		axisLabel: "Network I/O (MB)",
		time:      func(s stats.Network) int64 { return s.Time },
		quantities: []quantitySpec[stats.Network]{
			{
				label: "Network Read",
				color: colorRead,
				unit:  UnitMegabytes,
				value: func(s stats.Network) float64 { return s.RxMb },
			},
			{
				label: "Network Write",
				color: colorWrite,
				unit:  UnitMegabytes,
				value: func(s stats.Network) float64 { return s.TxMb },
			},
		},
	}, samples, w)
}

// AggregateDisk reduces disk samples to read and write series.
func AggregateDisk(samples []stats.Disk, w Window) Aggregation {
	return reduce(domainSpec[stats.Disk]{
		domain:    stats.DomainDisk,
		axisLabel: "Disk I/O (MB)",
		time:      func(s stats.Disk) int64 { return s.Time },
		quantities: []quantitySpec[stats.Disk]{
			{
				label: "Disk Read",
				color: colorRead,
				unit:  UnitMegabytes,
				value: func(s stats.Disk) float64 { return s.ReadMb },
			},
			{
				label: "Disk Write",
				color: colorWrite,
				unit:  UnitMegabytes,
				value: func(s stats.Disk) float64 { return s.WriteMb },
			},
		},
	}, samples, w)
}

// Empty reports whether no samples fell inside the window.
func (a Aggregation) Empty() bool {
	return a.Samples == 0
}

// Avg returns the mean of series i across the in-window samples.
func (a Aggregation) Avg(i int) float64 {
	if a.Samples == 0 {
		return 0
	}
	return a.Series[i].Sum / float64(a.Samples)
}

// SummaryRows renders the statistics rows, one per series. The usage row
// of a capacity-carrying domain also gets the usage share appended.
func (a Aggregation) SummaryRows() []SummaryRow {
	if a.Samples == 0 {
		return nil
	}

	rows := make([]SummaryRow, 0, len(a.Series))
	for i, s := range a.Series {
		row := SummaryRow{
			Label: s.Label,
			Max:   formatValue(s.Max, s.Unit),
			Avg:   formatValue(a.Avg(i), s.Unit),
		}
		if a.usagePct && i == 0 {
			row.Max += fmt.Sprintf("(%.2f%%)", a.maxUsageShare())
			row.Avg += fmt.Sprintf("(%.2f%%)", a.avgUsageShare())
		}
		rows = append(rows, row)
	}
	return rows
}

// maxUsageShare is max(usage) over the largest capacity seen in the
// window. avgUsageShare is sum(usage) over the per-sample running
// maximum of capacity, accumulated sample by sample. Both are plain
// ratios rendered with a percent suffix; the report format depends on
// these exact formulas.
func (a Aggregation) maxUsageShare() float64 {
	if a.capMax == 0 {
		return 0
	}
	return a.Series[0].Max / a.capMax
}

func (a Aggregation) avgUsageShare() float64 {
	if a.capSum == 0 {
		return 0
	}
	return a.Series[0].Sum / a.capSum
}

// DetailHeader returns the column labels for the per-sample table.
func (a Aggregation) DetailHeader() []string {
	header := make([]string, 0, len(a.Series)+1)
	header = append(header, "Time")
	for _, s := range a.Series {
		header = append(header, s.Label)
	}
	return header
}

// DetailRows renders one row per in-window sample with whole-second
// elapsed labels, followed by trailing Max and Avg rows.
func (a Aggregation) DetailRows() [][]string {
	if a.Samples == 0 {
		return nil
	}

	rows := make([][]string, 0, a.Samples+2)
	for idx := 0; idx < a.Samples; idx++ {
		row := make([]string, 0, len(a.Series)+1)
		row = append(row, fmt.Sprintf("%ds", (a.Series[0].Points[idx].X-a.Origin)/1000))
		for _, s := range a.Series {
			row = append(row, formatValue(s.Points[idx].Y, s.Unit))
		}
		rows = append(rows, row)
	}

	maxRow := []string{"Max"}
	avgRow := []string{"Avg"}
	for i, s := range a.Series {
		maxRow = append(maxRow, formatValue(s.Max, s.Unit))
		avgRow = append(avgRow, formatValue(a.Avg(i), s.Unit))
	}
	return append(rows, maxRow, avgRow)
}

func formatValue(v float64, u Unit) string {
	if u == UnitPercent {
		return fmt.Sprintf("%.2f%%", v)
	}
	return fmt.Sprintf("%.2fM", v)
}

func floorZero(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}
