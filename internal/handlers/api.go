package handlers

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"superstore-map/internal/errors"
	"superstore-map/internal/models"
	"superstore-map/internal/observability"
	"superstore-map/internal/services"
)

type APIHandlers struct {
	session *services.Session
	logger  *slog.Logger
}

func NewAPIHandlers(session *services.Session, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		session: session,
		logger:  logger,
	}
}

// Circle is one city marker on the globe. Metrics carries the full bucket for
// tooltips; Value is the active metric (absolute for profit, sign is a color
// concern).
type Circle struct {
	Country string              `json:"country"`
	City    string              `json:"city"`
	Lat     float64             `json:"lat"`
	Lng     float64             `json:"lng"`
	Value   float64             `json:"value"`
	Radius  float64             `json:"radius"`
	Visible bool                `json:"visible"`
	Metrics *models.CityMetrics `json:"metrics"`
}

type circlesResponse struct {
	Metric      models.CircleMetric   `json:"metric"`
	WindowStart string                `json:"window_start"`
	WindowEnd   string                `json:"window_end"`
	Scale       *services.RadiusScale `json:"scale"`
	Circles     []Circle              `json:"circles"`
}

// HandleCircles returns the circle layer for the active window. An optional
// metric query parameter switches the session's circle metric first.
func (h *APIHandlers) HandleCircles(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	if raw := r.URL.Query().Get("metric"); raw != "" {
		metric := models.CircleMetric(raw)
		if !metric.Valid() {
			errors.WriteError(w, h.logger, errors.BadRequest("unknown circle metric: "+raw), requestID)
			return
		}
		h.session.SetCircleMetric(metric)
	}

	metric := h.session.CircleMetric()
	buckets, _ := h.session.CityBuckets()
	scale := h.session.RadiusScale()

	circles := make([]Circle, 0, 256)
	for country, cities := range buckets {
		for city, metrics := range cities {
			pos, ok := h.session.CityPosition(country, city)
			if !ok {
				continue
			}

			value := metrics.Value(metric)
			if metric == models.CircleProfit {
				value = math.Abs(value)
			}

			circles = append(circles, Circle{
				Country: country,
				City:    city,
				Lat:     pos.Lat,
				Lng:     pos.Lng,
				Value:   value,
				Radius:  scale.Radius(value),
				Visible: h.session.IsVisible(pos.Lng, pos.Lat),
				Metrics: metrics,
			})
		}
	}

	start, end := h.session.Window()
	errors.WriteSuccess(w, circlesResponse{
		Metric:      metric,
		WindowStart: start,
		WindowEnd:   end,
		Scale:       scale,
		Circles:     circles,
	})
}

type heatmapResponse struct {
	Metric models.HeatmapMetric `json:"metric"`
	Legend models.Legend        `json:"legend"`
	Fills  map[string]string    `json:"fills"`
}

// HandleHeatmap returns per-country fill colors and the legend for the active
// heatmap metric.
func (h *APIHandlers) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	if raw := r.URL.Query().Get("metric"); raw != "" {
		metric := models.HeatmapMetric(raw)
		if !metric.Valid() {
			errors.WriteError(w, h.logger, errors.BadRequest("unknown heatmap metric: "+raw), requestID)
			return
		}
		h.session.SetHeatmapMetric(metric)
	}

	encoding, err := h.session.Heatmap()
	if err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "failed to derive heatmap"), requestID)
		return
	}

	buckets := h.session.CountryBuckets()
	fills := make(map[string]string, len(buckets))
	for country, bucket := range buckets {
		fills[country] = encoding.CountryColor(bucket)
	}

	errors.WriteSuccess(w, heatmapResponse{
		Metric: encoding.Metric,
		Legend: encoding.Legend,
		Fills:  fills,
	})
}

// HandleCompare runs the country comparison. Both query parameters are
// required; a country without orders is a 404, not an empty result.
func (h *APIHandlers) HandleCompare(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	country1 := r.URL.Query().Get("country1")
	country2 := r.URL.Query().Get("country2")
	if country1 == "" || country2 == "" {
		errors.WriteError(w, h.logger, errors.BadRequest("country1 and country2 are required"), requestID)
		return
	}

	summary := h.session.Compare(country1, country2)
	if summary == nil {
		errors.WriteError(w, h.logger, errors.NotFound("no orders found for one or both countries"), requestID)
		return
	}

	errors.WriteSuccess(w, summary)
}

func (h *APIHandlers) HandleCountries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=300")
	errors.WriteSuccess(w, h.session.Countries())
}

type windowResponse struct {
	Start string                  `json:"start"`
	End   string                  `json:"end"`
	State services.AnimationState `json:"state"`
}

func (h *APIHandlers) HandleGetWindow(w http.ResponseWriter, r *http.Request) {
	start, end := h.session.Window()
	errors.WriteSuccess(w, windowResponse{
		Start: start,
		End:   end,
		State: h.session.Timeline().State(),
	})
}

// HandleSetWindow applies a manual window edit. Either bound may be blank for
// an open side; supplied bounds must be YYYY-MM-DD.
func (h *APIHandlers) HandleSetWindow(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	start := r.FormValue("start")
	end := r.FormValue("end")
	for _, value := range []string{start, end} {
		if value == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", value); err != nil {
			errors.WriteError(w, h.logger, errors.Validation("dates must be YYYY-MM-DD"), requestID)
			return
		}
	}

	h.session.SetWindow(start, end)

	newStart, newEnd := h.session.Window()
	errors.WriteSuccess(w, windowResponse{
		Start: newStart,
		End:   newEnd,
		State: h.session.Timeline().State(),
	})
}

type timelineResponse struct {
	State       services.AnimationState `json:"state"`
	Granularity services.Granularity    `json:"granularity"`
	Start       string                  `json:"start"`
	End         string                  `json:"end"`
}

func (h *APIHandlers) timelineState() timelineResponse {
	tl := h.session.Timeline()
	start, end := h.session.Window()
	return timelineResponse{
		State:       tl.State(),
		Granularity: tl.Granularity(),
		Start:       start,
		End:         end,
	}
}

func (h *APIHandlers) HandleTimelineStart(w http.ResponseWriter, r *http.Request) {
	h.session.Timeline().Start()
	errors.WriteSuccess(w, h.timelineState())
}

func (h *APIHandlers) HandleTimelinePause(w http.ResponseWriter, r *http.Request) {
	h.session.Timeline().Pause()
	errors.WriteSuccess(w, h.timelineState())
}

func (h *APIHandlers) HandleTimelineStop(w http.ResponseWriter, r *http.Request) {
	h.session.Timeline().Stop()
	errors.WriteSuccess(w, h.timelineState())
}

func (h *APIHandlers) HandleTimelineDelay(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	ms, err := strconv.Atoi(r.FormValue("ms"))
	if err != nil || ms <= 0 {
		errors.WriteError(w, h.logger, errors.Validation("ms must be a positive integer"), requestID)
		return
	}

	h.session.Timeline().SetDelay(time.Duration(ms) * time.Millisecond)
	errors.WriteSuccess(w, h.timelineState())
}

func (h *APIHandlers) HandleTimelineGranularity(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	g := services.Granularity(r.FormValue("value"))
	if !g.Valid() {
		errors.WriteError(w, h.logger, errors.Validation("granularity must be day, week or month"), requestID)
		return
	}

	h.session.Timeline().SetGranularity(g)
	errors.WriteSuccess(w, h.timelineState())
}

type rotateResponse struct {
	Rotation models.Rotation `json:"rotation"`
	Applied  bool            `json:"applied"`
}

// HandleRotate applies a drag delta to the globe. Deltas arriving faster than
// the frame gate are reported back as dropped.
func (h *APIHandlers) HandleRotate(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	dx, errX := strconv.ParseFloat(r.FormValue("dx"), 64)
	dy, errY := strconv.ParseFloat(r.FormValue("dy"), 64)
	if errX != nil || errY != nil {
		errors.WriteError(w, h.logger, errors.Validation("dx and dy must be numbers"), requestID)
		return
	}

	rotation, applied := h.session.RotateView(dx, dy)
	errors.WriteSuccess(w, rotateResponse{Rotation: rotation, Applied: applied})
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.session.Stats())
}
