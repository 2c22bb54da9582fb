package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Report themes understood by the chart axis styling.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

const (
	chartWidth  = 1000
	chartHeight = 500
)

// ChartService renders labeled point series into retrievable chart
// images through the remote chart endpoint. Rendering is best-effort: a
// failed render logs a warning and yields nil, and the report simply
// omits that section.
type ChartService struct {
	baseURL    string
	theme      string
	httpClient *http.Client
}

// NewChartService returns a chart client for the endpoint at baseURL.
// theme selects the axis color; unknown themes warn and fall back to
// light.
func NewChartService(baseURL, theme string) *ChartService {
	return &ChartService{
		baseURL: strings.TrimRight(baseURL, "/"),
		theme:   theme,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ChartResult identifies a rendered chart.
type ChartResult struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type chartRequest struct {
	Options chartOptions  `json:"options"`
	Lines   []chartSeries `json:"lines,omitempty"`
	Areas   []chartSeries `json:"areas,omitempty"`
}

type chartOptions struct {
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	XAxis     axisLabel  `json:"xAxis"`
	YAxis     axisLabel  `json:"yAxis"`
	TimeTicks tickConfig `json:"timeTicks"`
	AxisColor string     `json:"axisColor"`
}

type axisLabel struct {
	Label string `json:"label"`
}

type tickConfig struct {
	Unit string `json:"unit"`
}

type chartSeries struct {
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// Line renders one series as a time-axis line chart.
func (c *ChartService) Line(ctx context.Context, yLabel string, s Series) *ChartResult {
	return c.render(ctx, "line/time", chartRequest{
		Options: c.options(yLabel),
		Lines:   toChartSeries([]Series{s}),
	})
}

// StackedArea renders co-plotted series as a time-axis stacked-area
// chart. The series must share one x-axis sample set.
func (c *ChartService) StackedArea(ctx context.Context, yLabel string, series []Series) *ChartResult {
	return c.render(ctx, "stacked-area/time", chartRequest{
		Options: c.options(yLabel),
		Areas:   toChartSeries(series),
	})
}

func (c *ChartService) render(ctx context.Context, kind string, chart chartRequest) *ChartResult {
	if len(chart.Lines)+len(chart.Areas) == 0 {
		return nil
	}

	result, err := c.post(ctx, kind, chart)
	if err != nil {
		slog.Warn("Chart render failed", "kind", kind, "error", err)
		return nil
	}
	return result
}

func (c *ChartService) post(ctx context.Context, kind string, chart chartRequest) (*ChartResult, error) {
	payload, err := json.Marshal(chart)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chart request: %w", err)
	}

	// Chart requests are deliberately not retried: a failed chart
	// degrades the report to an omitted section instead of stalling it.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+kind, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create chart request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chart request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("chart endpoint returned status %d", resp.StatusCode)
	}

	var result ChartResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode chart response: %w", err)
	}
	return &result, nil
}

func (c *ChartService) options(yLabel string) chartOptions {
	return chartOptions{
		Width:     chartWidth,
		Height:    chartHeight,
		XAxis:     axisLabel{Label: "Time"},
		YAxis:     axisLabel{Label: yLabel},
		TimeTicks: tickConfig{Unit: "auto"},
		AxisColor: c.axisColor(),
	}
}

// axisColor maps the theme to the axis color: black for light, white for
// dark. Anything else warns and uses the light default.
func (c *ChartService) axisColor() string {
	switch c.theme {
	case ThemeLight:
		return "#000000"
	case ThemeDark:
		return "#ffffff"
	default:
		slog.Warn("Unknown chart theme, defaulting to light", "theme", c.theme)
		return "#000000"
	}
}

func toChartSeries(series []Series) []chartSeries {
	out := make([]chartSeries, 0, len(series))
	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}
		out = append(out, chartSeries{
			Label:  s.Label,
			Color:  s.Color,
			Points: s.Points,
		})
	}
	return out
}
