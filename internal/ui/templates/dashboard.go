// Package templates holds the server-rendered dashboard shell. The map data
// itself arrives through the JSON API and the datastar SSE streams; this page
// only lays out the controls and the globe container.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Superstore World Map</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<script src="https://cdn.jsdelivr.net/npm/d3@7"></script>
<script src="https://cdn.jsdelivr.net/npm/topojson-client@3"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #fafafa; color: #222; }
header { padding: 12px 20px; background: #08306b; color: #fff; }
main { display: grid; grid-template-columns: 280px 1fr 320px; gap: 16px; padding: 16px; }
.panel { background: #fff; border-radius: 8px; padding: 12px; box-shadow: 0 1px 3px rgba(0,0,0,.15); }
#globe { width: 100%; aspect-ratio: 1; }
.modern-table { width: 100%; border-collapse: collapse; font-size: 13px; }
.modern-table th, .modern-table td { padding: 4px 8px; border-bottom: 1px solid #eee; text-align: left; }
.compare-narrative { font-size: 13px; padding-left: 18px; }
#window-label { font-variant-numeric: tabular-nums; font-weight: 600; }
.legend-swatch { display: inline-block; width: 12px; height: 12px; margin-right: 6px; border-radius: 2px; }
</style>
</head>
<body data-signals="{windowStart: '', windowEnd: '', animationState: 'stopped', revision: 0, circleMetric: 'orders', heatmapMetric: 'orders'}">
<header>
<h1>Superstore World Map</h1>
</header>
<main data-on-load="@get('/sse/timeline')">
<section class="panel" id="controls">
<h2>Metrics</h2>
<label>Circles
<select data-bind-circleMetric data-on-change="@get('/api/circles?metric=' + $circleMetric); @get('/sse/map-refresh')">
<option value="orders">Orders</option>
<option value="sales">Sales</option>
<option value="profit">Profit</option>
<option value="quantity">Quantity</option>
<option value="shipping">Shipping Cost</option>
<option value="discount">Discount</option>
</select>
</label>
<label>Heatmap
<select data-bind-heatmapMetric data-on-change="@get('/api/heatmap?metric=' + $heatmapMetric); @get('/sse/map-refresh')">
<option value="orders">Orders</option>
<option value="sales">Sales</option>
<option value="profit">Profit</option>
<option value="discounts">Discounts</option>
<option value="shipping_cost">Shipping Cost</option>
<option value="quantity">Quantity</option>
<option value="shipping_mode">Ship Mode</option>
<option value="segment">Segment</option>
<option value="category">Category</option>
<option value="priority">Order Priority</option>
</select>
</label>
<h2>Date Window</h2>
<input type="date" data-bind-windowStart>
<input type="date" data-bind-windowEnd>
<button data-on-click="@post('/api/window', {contentType: 'form'})">Apply</button>
<div id="window-label">all time</div>
<h2>Animation</h2>
<button data-on-click="@post('/api/timeline/start')">Play</button>
<button data-on-click="@post('/api/timeline/pause')">Pause</button>
<button data-on-click="@post('/api/timeline/stop')">Stop</button>
<label>Step
<select data-on-change="@post('/api/timeline/granularity', {contentType: 'form'})" name="value">
<option value="day">Day</option>
<option value="week" selected>Week</option>
<option value="month">Month</option>
</select>
</label>
<div id="legend"></div>
</section>
<section class="panel">
<svg id="globe"></svg>
</section>
<section class="panel">
<h2>Compare Countries</h2>
<select id="compare-country1"></select>
<select id="compare-country2"></select>
<button data-on-click="@get('/sse/compare?country1=' + document.getElementById('compare-country1').value + '&country2=' + document.getElementById('compare-country2').value)">Compare</button>
<div id="compare-content">Select two countries to compare.</div>
</section>
</main>
</body>
</html>`

// Dashboard renders the single-page map dashboard.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardHTML)
		return err
	})
}
