package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"superstore-map/internal/models"
	"superstore-map/internal/observability"
	"superstore-map/internal/store"
)

// frameInterval bounds view-driven recomputation to roughly 60 updates/sec.
const frameInterval = 16 * time.Millisecond

// WindowUpdate is pushed to subscribers only after a window change has been
// fully applied: window set, buckets rebuilt, revision bumped.
type WindowUpdate struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Revision uint64 `json:"revision"`
	State    string `json:"state"`
}

// Session holds the shared visualization state: the active window, selected
// metrics, globe rotation, and the current bucket snapshots. It replaces
// ambient globals with one explicit object, so the aggregator, scale engine
// and timeline stay pure functions of their inputs.
type Session struct {
	mu sync.RWMutex

	logger *slog.Logger
	orders *store.OrderStore
	cities store.CityIndex

	rawStart string
	rawEnd   string

	circleMetric  models.CircleMetric
	heatmapMetric models.HeatmapMetric
	rotation      models.Rotation

	cityBuckets    CityBuckets
	countryBuckets CountryBuckets
	revision       uint64

	scales   *ScaleEngine
	timeline *Timeline
	viewGate *ViewGate

	subMu       sync.Mutex
	subscribers map[chan WindowUpdate]struct{}
}

// NewSession aggregates the full dataset (open window) and wires the timeline
// so its ticks flow back through the session's rebuild pipeline.
func NewSession(orders *store.OrderStore, cities store.CityIndex, sched Scheduler, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		logger:        logger,
		orders:        orders,
		cities:        cities,
		circleMetric:  models.CircleOrders,
		heatmapMetric: models.HeatmapOrders,
		scales:        NewScaleEngine(),
		viewGate:      NewViewGate(frameInterval),
		subscribers:   make(map[chan WindowUpdate]struct{}),
	}

	dataStart, dataEnd := orders.Bounds()
	s.timeline = NewTimeline(sched, dataStart, dataEnd, logger, s.applyWindow)

	s.applyWindow("", "")
	return s
}

// applyWindow is the single write path for the date window. The window fields
// are committed together with the rebuilt buckets under one lock, so a reader
// can never observe a half-updated window.
func (s *Session) applyWindow(rawStart, rawEnd string) {
	_, span := observability.StartSpan(context.Background(), "session.rebuild")
	defer span.Finish()

	window := parseWindow(rawStart, rawEnd)
	orders := s.orders.Orders()

	cityBuckets := AggregateCities(orders, window)
	countryBuckets := AggregateCountries(orders, window)

	s.mu.Lock()
	s.rawStart = rawStart
	s.rawEnd = rawEnd
	s.cityBuckets = cityBuckets
	s.countryBuckets = countryBuckets
	s.revision++
	revision := s.revision
	s.mu.Unlock()

	span.SetTag("window", rawStart+".."+rawEnd)
	s.logger.Debug("window applied",
		"start", rawStart,
		"end", rawEnd,
		"revision", revision,
		"countries", len(countryBuckets),
	)

	s.notify(WindowUpdate{
		Start:    rawStart,
		End:      rawEnd,
		Revision: revision,
		State:    string(s.timeline.State()),
	})
}

func parseWindow(rawStart, rawEnd string) models.DateWindow {
	var window models.DateWindow
	if t, err := time.Parse(windowDateFormat, rawStart); err == nil {
		window.Start = t
	}
	if t, err := time.Parse(windowDateFormat, rawEnd); err == nil {
		window.End = t
	}
	return window
}

// SetWindow applies a manual window edit through the timeline so an active
// run is paused first.
func (s *Session) SetWindow(start, end string) {
	s.timeline.SetWindow(start, end)
}

// Window returns the active raw window.
func (s *Session) Window() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rawStart, s.rawEnd
}

func (s *Session) Timeline() *Timeline {
	return s.timeline
}

func (s *Session) SetCircleMetric(m models.CircleMetric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.circleMetric = m
}

func (s *Session) CircleMetric() models.CircleMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.circleMetric
}

func (s *Session) SetHeatmapMetric(m models.HeatmapMetric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.heatmapMetric = m
}

func (s *Session) HeatmapMetric() models.HeatmapMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.heatmapMetric
}

// CityBuckets returns the current snapshot and its revision. The snapshot is
// never mutated after publication; holders of an old reference see consistent
// (if stale) data.
func (s *Session) CityBuckets() (CityBuckets, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cityBuckets, s.revision
}

func (s *Session) CountryBuckets() CountryBuckets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countryBuckets
}

// RadiusScale derives (or reuses) the radius scale for the active metric.
func (s *Session) RadiusScale() *RadiusScale {
	buckets, revision := s.CityBuckets()
	return s.scales.RadiusScale(buckets, s.CircleMetric(), revision)
}

// Heatmap derives the color encoding for the active heatmap metric.
func (s *Session) Heatmap() (*HeatmapEncoding, error) {
	return DeriveHeatmap(s.CountryBuckets(), s.HeatmapMetric())
}

// Compare runs the country comparison over the full (unwindowed) order set.
func (s *Session) Compare(country1, country2 string) *models.ComparisonSummary {
	return Compare(s.orders.Orders(), country1, country2)
}

// Countries lists the normalized country names present in the data.
func (s *Session) Countries() []string {
	return UniqueCountries(s.orders.Orders())
}

// RotateView applies a drag delta when the frame gate allows it. The bool
// reports whether the rotation was applied; denied drags are dropped because
// a newer event supersedes them.
func (s *Session) RotateView(dx, dy float64) (models.Rotation, bool) {
	if !s.viewGate.Allow() {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.rotation, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rotation = Rotate(s.rotation, dx, dy)
	return s.rotation, true
}

func (s *Session) Rotation() models.Rotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rotation
}

// IsVisible tests a point against the current rotation.
func (s *Session) IsVisible(lng, lat float64) bool {
	return IsPointVisible(s.Rotation(), lng, lat)
}

// CityPosition looks up a city's lat/lng; ok is false when the geo index is
// absent or the city is unknown, which callers treat as "skip", not an error.
func (s *Session) CityPosition(country, city string) (models.LatLng, bool) {
	if s.cities == nil {
		return models.LatLng{}, false
	}
	return s.cities.Lookup(country, city)
}

// Subscribe registers for window updates. The returned cancel func must be
// called to release the channel. Slow subscribers drop updates instead of
// blocking the tick path.
func (s *Session) Subscribe() (<-chan WindowUpdate, func()) {
	ch := make(chan WindowUpdate, 8)

	s.subMu.Lock()
	s.subscribers[ch] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		delete(s.subscribers, ch)
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *Session) notify(update WindowUpdate) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- update:
		default:
		}
	}
}

// Stats summarizes session state for the admin endpoint.
func (s *Session) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cityCount := 0
	for _, cities := range s.cityBuckets {
		cityCount += len(cities)
	}

	return map[string]any{
		"record_count":   s.orders.Count(),
		"revision":       s.revision,
		"window_start":   s.rawStart,
		"window_end":     s.rawEnd,
		"countries":      len(s.countryBuckets),
		"cities":         cityCount,
		"circle_metric":  s.circleMetric,
		"heatmap_metric": s.heatmapMetric,
		"animation":      s.timeline.State(),
	}
}
