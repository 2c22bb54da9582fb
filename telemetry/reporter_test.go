package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runmeter.sh/stats"
)

// fakeStore serves canned samples the way the collector daemon does.
func fakeStore(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	collects := &atomic.Int32{}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /collect", func(w http.ResponseWriter, r *http.Request) {
		collects.Add(1)
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})
	mux.HandleFunc("GET /cpu", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]stats.CPU{
			{Time: 0, UserLoad: 10, SystemLoad: 5},
			{Time: 1000, UserLoad: 20, SystemLoad: 10},
			{Time: 2000, UserLoad: 30, SystemLoad: 5},
		})
	})
	mux.HandleFunc("GET /memory", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]stats.Memory{
			{Time: 0, TotalMb: 1000, ActiveMb: 100, AvailableMb: 900},
			{Time: 1000, TotalMb: 1000, ActiveMb: 200, AvailableMb: 800},
			{Time: 2000, TotalMb: 1000, ActiveMb: 300, AvailableMb: 700},
		})
	})
	mux.HandleFunc("GET /network", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]stats.Network{
			{Time: 0, RxMb: 1, TxMb: 2},
			{Time: 1000, RxMb: 3, TxMb: 4},
		})
	})
	mux.HandleFunc("GET /disk", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]stats.Disk{
			{Time: 0, ReadMb: 1, WriteMb: 1},
			{Time: 1000, ReadMb: 2, WriteMb: 2},
		})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, collects
}

// fakeCharts answers every render with a unique URL.
func fakeCharts(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	renders := &atomic.Int32{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := renders.Add(1)
		json.NewEncoder(w).Encode(ChartResult{
			ID:  fmt.Sprintf("chart-%d", n),
			URL: fmt.Sprintf("https://charts.test/%d.png", n),
		})
	}))
	t.Cleanup(ts.Close)
	return ts, renders
}

func TestReporterGenerateWindowed(t *testing.T) {
	store, collects := fakeStore(t)
	charts, renders := fakeCharts(t)

	r := NewReporter(ReporterConfig{
		StoreURL: store.URL,
		ChartURL: charts.URL,
		Theme:    ThemeLight,
		WindowSource: &CommandWindowSource{
			Record: &CommandRecord{Name: "build", StartMs: 0, DurationSec: 2},
		},
		MemoryAvailable: true,
	})

	report, err := r.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), collects.Load(), "a final collect precedes the fetch")
	assert.Equal(t, int32(6), renders.Load(), "two stacked areas and four lines")

	assert.Contains(t, report, "### CPU Metrics")
	assert.Contains(t, report, "### Memory Metrics")
	assert.Contains(t, report, "### IO Metrics")
	assert.Contains(t, report, "Total duration: 2s")
	assert.Contains(t, report, "| CPU User Load | 30.00% | 20.00% |")
	assert.Contains(t, report, "| Memory Usage | 300.00M(0.30%) | 200.00M(0.20%) |")
	assert.Contains(t, report, "https://charts.test/")
}

func TestReporterGenerateFullStream(t *testing.T) {
	store, _ := fakeStore(t)
	charts, _ := fakeCharts(t)

	r := NewReporter(ReporterConfig{
		StoreURL:        store.URL,
		ChartURL:        charts.URL,
		Theme:           ThemeDark,
		MemoryAvailable: true,
	})

	report, err := r.Generate(context.Background())
	require.NoError(t, err)

	assert.Contains(t, report, "### CPU Details")
	assert.Contains(t, report, "### Disk Details")
	assert.NotContains(t, report, "### Runtime Statistics")
}

func TestReporterStoreDownYieldsEmptyReport(t *testing.T) {
	charts, renders := fakeCharts(t)

	r := NewReporter(ReporterConfig{
		StoreURL: "http://127.0.0.1:1",
		ChartURL: charts.URL,
		Theme:    ThemeLight,
	})

	report, err := r.Generate(context.Background())
	require.NoError(t, err, "a dead store degrades, it does not fail the job")
	assert.Empty(t, report)
	assert.Zero(t, renders.Load())
}

func TestReporterMemoryFetchFailureKeepsOtherDomains(t *testing.T) {
	charts, renders := fakeCharts(t)

	// only the memory endpoint fails; the other three domains serve
	mux := http.NewServeMux()
	mux.HandleFunc("POST /collect", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"success": true})
	})
	mux.HandleFunc("GET /cpu", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]stats.CPU{{Time: 0, UserLoad: 10, SystemLoad: 5}})
	})
	mux.HandleFunc("GET /memory", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "store exploded", http.StatusInternalServerError)
	})
	mux.HandleFunc("GET /network", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]stats.Network{{Time: 0, RxMb: 1, TxMb: 2}})
	})
	mux.HandleFunc("GET /disk", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]stats.Disk{{Time: 0, ReadMb: 1, WriteMb: 1}})
	})
	store := httptest.NewServer(mux)
	t.Cleanup(store.Close)

	r := NewReporter(ReporterConfig{
		StoreURL: store.URL,
		ChartURL: charts.URL,
		Theme:    ThemeLight,
		WindowSource: &CommandWindowSource{
			Record: &CommandRecord{Name: "build", StartMs: 0, DurationSec: 2},
		},
		MemoryAvailable: true,
	})

	report, err := r.Generate(context.Background())
	require.NoError(t, err, "one dead domain degrades its sections, not the report")

	assert.Contains(t, report, "### CPU Metrics")
	assert.NotContains(t, report, "### Memory Metrics")
	assert.Contains(t, report, "### IO Metrics")
	assert.Contains(t, report, "### Runtime Statistics")
	assert.Contains(t, report, "| CPU User Load | 10.00% | 10.00% |")
	assert.Contains(t, report, "| Network Read |")
	assert.Contains(t, report, "| Disk Read |")
	assert.NotContains(t, report, "Memory Usage")

	// CPU stacked area plus the four IO lines; nothing rendered for memory
	assert.Equal(t, int32(5), renders.Load())
}

func TestReporterChartsDownKeepsStatistics(t *testing.T) {
	store, _ := fakeStore(t)

	r := NewReporter(ReporterConfig{
		StoreURL: store.URL,
		ChartURL: "http://127.0.0.1:1",
		Theme:    ThemeLight,
		WindowSource: &CommandWindowSource{
			Record: &CommandRecord{Name: "build", StartMs: 0, DurationSec: 2},
		},
	})

	report, err := r.Generate(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, report, "### CPU Metrics")
	assert.NotContains(t, report, "### IO Metrics")
	assert.Contains(t, report, "### Runtime Statistics")
	assert.Contains(t, report, "| CPU User Load | 30.00% | 20.00% |")
}

func TestReporterUnresolvedWindowSuppressesTables(t *testing.T) {
	store, _ := fakeStore(t)
	charts, _ := fakeCharts(t)

	r := NewReporter(ReporterConfig{
		StoreURL:     store.URL,
		ChartURL:     charts.URL,
		Theme:        ThemeLight,
		WindowSource: &CommandWindowSource{}, // no record, never resolves
	})

	report, err := r.Generate(context.Background())
	require.NoError(t, err)

	assert.Contains(t, report, "### CPU Metrics")
	assert.NotContains(t, report, "### Runtime Statistics")
	assert.NotContains(t, report, "Details")
}

type panickySource struct{}

func (panickySource) ResolveWindow(ctx context.Context) (Window, error) {
	panic("window source exploded")
}

func TestReporterRecoversPanics(t *testing.T) {
	store, _ := fakeStore(t)
	charts, _ := fakeCharts(t)

	r := NewReporter(ReporterConfig{
		StoreURL:     store.URL,
		ChartURL:     charts.URL,
		Theme:        ThemeLight,
		WindowSource: panickySource{},
	})

	report, err := r.Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window source exploded")
	assert.Empty(t, report)
}
