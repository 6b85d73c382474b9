package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"superstore-map/internal/models"
	"superstore-map/internal/services"
)

var comparePanelTemplate = template.Must(template.New("comparePanel").Parse(`
<div id="compare-content">
<h3>{{.Country1}} vs {{.Country2}}</h3>
<ul class="compare-narrative">
{{range .Sentences}}<li>{{.}}</li>
{{end}}</ul>
<table class="modern-table">
<thead><tr><th></th><th>{{.Country1}}</th><th>{{.Country2}}</th></tr></thead>
<tbody>
<tr><td>Orders</td><td>{{.Stats1.Orders}}</td><td>{{.Stats2.Orders}}</td></tr>
<tr><td>Avg Sales</td><td>${{printf "%.2f" .Stats1.AvgSales}}</td><td>${{printf "%.2f" .Stats2.AvgSales}}</td></tr>
<tr><td>Avg Profit</td><td>${{printf "%.2f" .Stats1.AvgProfit}}</td><td>${{printf "%.2f" .Stats2.AvgProfit}}</td></tr>
<tr><td>Top Category</td><td>{{.Stats1.TopCategory}}</td><td>{{.Stats2.TopCategory}}</td></tr>
<tr><td>Top Ship Mode</td><td>{{.Stats1.TopShipMode}}</td><td>{{.Stats2.TopShipMode}}</td></tr>
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	session *services.Session
	logger  *slog.Logger
}

func NewSSEHandlers(session *services.Session, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		session: session,
		logger:  logger,
	}
}

// HandleTimelineStream is a long-lived stream pushing every window change to
// the browser as datastar signals, so the map and the date inputs stay in sync
// with the animation without polling.
func (h *SSEHandlers) HandleTimelineStream(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates, cancel := h.session.Subscribe()
	defer cancel()

	// seed the client with the current window before the first change
	start, end := h.session.Window()
	_, revision := h.session.CityBuckets()
	h.pushWindow(sse, services.WindowUpdate{
		Start:    start,
		End:      end,
		Revision: revision,
		State:    string(h.session.Timeline().State()),
	})

	for {
		select {
		case <-r.Context().Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.pushWindow(sse, update)
		}
	}
}

func (h *SSEHandlers) pushWindow(sse *datastar.ServerSentEventGenerator, update services.WindowUpdate) {
	signals, err := json.Marshal(map[string]any{
		"windowStart":    update.Start,
		"windowEnd":      update.End,
		"revision":       update.Revision,
		"animationState": update.State,
	})
	if err != nil {
		h.logger.Error("marshal window signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	label := "all time"
	if update.Start != "" || update.End != "" {
		label = update.Start + " to " + update.End
	}
	sse.PatchElements(`<div id="window-label">` + template.HTMLEscapeString(label) + `</div>`)
}

// HandleComparePanel renders the comparison panel over SSE so the dashboard
// can swap it in place.
func (h *SSEHandlers) HandleComparePanel(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	country1 := r.URL.Query().Get("country1")
	country2 := r.URL.Query().Get("country2")
	if country1 == "" || country2 == "" {
		sse.PatchElements(`<div id="compare-content">Select two countries to compare.</div>`)
		return
	}

	summary := h.session.Compare(country1, country2)
	if summary == nil {
		sse.PatchElements(`<div id="compare-content">No order data for one or both countries.</div>`)
		return
	}

	var buf strings.Builder
	if err := comparePanelTemplate.Execute(&buf, summary); err != nil {
		h.logger.Error("render compare panel", "error", err)
		return
	}
	sse.PatchElements(buf.String())

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleMapRefresh pushes the circle layer and the heatmap fills as one
// signal batch, used after metric switches and manual window edits.
func (h *SSEHandlers) HandleMapRefresh(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	buckets, revision := h.session.CityBuckets()
	scale := h.session.RadiusScale()
	metric := h.session.CircleMetric()

	type circleSignal struct {
		Country string  `json:"country"`
		City    string  `json:"city"`
		Value   float64 `json:"value"`
		Radius  float64 `json:"radius"`
	}
	circles := make([]circleSignal, 0, 256)
	for country, cities := range buckets {
		for city, metrics := range cities {
			value := metrics.Value(metric)
			if metric == models.CircleProfit {
				value = math.Abs(value)
			}
			circles = append(circles, circleSignal{
				Country: country,
				City:    city,
				Value:   value,
				Radius:  scale.Radius(value),
			})
		}
	}

	encoding, err := h.session.Heatmap()
	if err != nil {
		h.logger.Error("derive heatmap", "error", err)
		return
	}
	countryBuckets := h.session.CountryBuckets()
	fills := make(map[string]string, len(countryBuckets))
	for country, bucket := range countryBuckets {
		fills[country] = encoding.CountryColor(bucket)
	}

	signals, err := json.Marshal(map[string]any{
		"circlesData":  circles,
		"heatmapFills": fills,
		"legend":       encoding.Legend,
		"revision":     revision,
	})
	if err != nil {
		h.logger.Error("marshal map signals", "error", err)
		return
	}
	sse.PatchSignals(signals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
