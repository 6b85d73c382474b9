package services

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"superstore-map/internal/models"
)

const dragDegreesPerPixel = 0.25

// IsPointVisible reports whether a point is on the visible hemisphere of an
// orthographic projection rotated by r. The negated rotation is the sphere's
// forward-facing center; the point is visible when its angular separation from
// the center is under 90°, i.e. the dot product of the unit vectors is
// positive. All trig runs in radians.
func IsPointVisible(r models.Rotation, lng, lat float64) bool {
	centerLng := -r.Lambda
	centerLat := -r.Phi

	cx, cy, cz := toUnitVector(centerLng, centerLat)
	px, py, pz := toUnitVector(lng, lat)

	return cx*px+cy*py+cz*pz > 0
}

func toUnitVector(lngDeg, latDeg float64) (x, y, z float64) {
	lng := lngDeg * math.Pi / 180
	lat := latDeg * math.Pi / 180
	return math.Cos(lat) * math.Cos(lng), math.Cos(lat) * math.Sin(lng), math.Sin(lat)
}

// Rotate applies a pointer-drag delta to a rotation: horizontal drag spins
// longitude, vertical drag tilts latitude, roll is untouched.
func Rotate(r models.Rotation, dx, dy float64) models.Rotation {
	r.Lambda += dx * dragDegreesPerPixel
	r.Phi -= dy * dragDegreesPerPixel
	return r
}

// ViewGate bounds view-driven recomputation (globe drags arrive per pointer
// event, recomputation is a full pass over the buckets) to roughly one update
// per rendering frame.
type ViewGate struct {
	mu      sync.Mutex
	limiter *rate.Limiter
}

// NewViewGate allows one recomputation per frame interval with a burst of one.
func NewViewGate(frame time.Duration) *ViewGate {
	return &ViewGate{limiter: rate.NewLimiter(rate.Every(frame), 1)}
}

// Allow reports whether a recomputation may run now; denied requests are
// dropped, not queued, because a newer drag event supersedes them.
func (g *ViewGate) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limiter.Allow()
}
