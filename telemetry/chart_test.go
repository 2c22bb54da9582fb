package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeries() Series {
	return Series{
		Label:  "Disk Read",
		Color:  "#ff7f00",
		Points: []Point{{X: 0, Y: 1.5}, {X: 1000, Y: 2.5}},
	}
}

func TestChartServiceLine(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(ChartResult{ID: "c1", URL: "https://charts.test/c1.png"})
	}))
	defer ts.Close()

	svc := NewChartService(ts.URL, ThemeLight)
	result := svc.Line(context.Background(), "Disk I/O (MB)", testSeries())

	require.NotNil(t, result)
	assert.Equal(t, "c1", result.ID)
	assert.Equal(t, "https://charts.test/c1.png", result.URL)
	assert.Equal(t, "/line/time", gotPath)

	options := gotBody["options"].(map[string]any)
	assert.Equal(t, float64(1000), options["width"])
	assert.Equal(t, float64(500), options["height"])
	assert.Equal(t, "#000000", options["axisColor"])
	assert.Equal(t, "Time", options["xAxis"].(map[string]any)["label"])
	assert.Equal(t, "Disk I/O (MB)", options["yAxis"].(map[string]any)["label"])
	assert.Equal(t, "auto", options["timeTicks"].(map[string]any)["unit"])

	lines := gotBody["lines"].([]any)
	require.Len(t, lines, 1)
	line := lines[0].(map[string]any)
	assert.Equal(t, "Disk Read", line["label"])
	assert.Equal(t, "#ff7f00", line["color"])
	points := line["points"].([]any)
	require.Len(t, points, 2)
	assert.Equal(t, float64(1.5), points[0].(map[string]any)["y"])
}

func TestChartServiceStackedArea(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(ChartResult{ID: "c2", URL: "https://charts.test/c2.png"})
	}))
	defer ts.Close()

	series := []Series{
		{Label: "CPU User Load", Color: "#e41a1c", Points: []Point{{X: 0, Y: 10}}},
		{Label: "CPU System Load", Color: "#377eb8", Points: []Point{{X: 0, Y: 5}}},
	}

	svc := NewChartService(ts.URL, ThemeDark)
	result := svc.StackedArea(context.Background(), "CPU Load (%)", series)

	require.NotNil(t, result)
	assert.Equal(t, "/stacked-area/time", gotPath)

	options := gotBody["options"].(map[string]any)
	assert.Equal(t, "#ffffff", options["axisColor"])

	areas := gotBody["areas"].([]any)
	assert.Len(t, areas, 2)
	_, hasLines := gotBody["lines"]
	assert.False(t, hasLines)
}

func TestChartServiceUnknownThemeDefaultsToLight(t *testing.T) {
	svc := NewChartService("http://unused", "solarized")
	assert.Equal(t, "#000000", svc.axisColor())
}

func TestChartServiceSkipsEmptySeries(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer ts.Close()

	svc := NewChartService(ts.URL, ThemeLight)

	assert.Nil(t, svc.Line(context.Background(), "y", Series{Label: "empty"}))
	assert.Nil(t, svc.StackedArea(context.Background(), "y", []Series{{Label: "a"}, {Label: "b"}}))
	assert.Zero(t, hits, "empty series must not hit the endpoint")
}

func TestChartServiceFailureYieldsNil(t *testing.T) {
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	svc := NewChartService(ts.URL, ThemeLight)

	assert.Nil(t, svc.Line(context.Background(), "y", testSeries()))
	assert.Equal(t, 1, hits, "failed chart requests are not retried")
}

func TestChartServiceUnreachableYieldsNil(t *testing.T) {
	svc := NewChartService("http://127.0.0.1:1", ThemeLight)
	assert.Nil(t, svc.Line(context.Background(), "y", testSeries()))
}
