package services

import (
	"testing"
	"time"

	"superstore-map/internal/models"
)

func TestIsPointVisible(t *testing.T) {
	tests := []struct {
		name     string
		rotation models.Rotation
		lng, lat float64
		want     bool
	}{
		{"origin faces origin", models.Rotation{}, 0, 0, true},
		{"antipode hidden", models.Rotation{}, 180, 0, false},
		{"equator edge east", models.Rotation{}, 89, 0, true},
		{"equator past edge", models.Rotation{}, 91, 0, false},
		{"pole visible from default view", models.Rotation{}, 0, 89, true},
		{"rotated to antipode", models.Rotation{Lambda: -180}, 180, 0, true},
		{"rotated hides origin", models.Rotation{Lambda: -180}, 0, 0, false},
		{"tilted toward north pole", models.Rotation{Phi: -90}, 0, 90, true},
		{"tilt hides south pole", models.Rotation{Phi: -90}, 0, -90, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPointVisible(tt.rotation, tt.lng, tt.lat); got != tt.want {
				t.Errorf("IsPointVisible(%+v, %v, %v) = %v, want %v",
					tt.rotation, tt.lng, tt.lat, got, tt.want)
			}
		})
	}
}

func TestRotate(t *testing.T) {
	r := Rotate(models.Rotation{}, 100, 40)

	if r.Lambda != 25 {
		t.Errorf("Lambda = %v, want 25", r.Lambda)
	}
	// vertical drag moves latitude the opposite way, matching pointer feel
	if r.Phi != -10 {
		t.Errorf("Phi = %v, want -10", r.Phi)
	}
	if r.Gamma != 0 {
		t.Errorf("Gamma = %v, want 0", r.Gamma)
	}

	// drags accumulate
	r = Rotate(r, -100, -40)
	if r.Lambda != 0 || r.Phi != 0 {
		t.Errorf("reversed drag = %+v, want identity", r)
	}
}

func TestViewGate(t *testing.T) {
	gate := NewViewGate(time.Hour)

	if !gate.Allow() {
		t.Error("first request should pass")
	}
	if gate.Allow() {
		t.Error("second request inside the frame should be dropped")
	}
}
