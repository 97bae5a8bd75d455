package sim

import (
	"math"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/mpc/utils"
)

// Track kinds.
const (
	TrackStraight = "straight"
	TrackSine     = "sine"
	TrackCircle   = "circle"
)

// TrackConfig describes a reference track.
type TrackConfig struct {
	Kind string `json:"kind"`
	// Length of open tracks, in meters.
	Length float64 `json:"length"`
	// Spacing between consecutive waypoints, in meters.
	Spacing    float64 `json:"spacing"`
	Amplitude  float64 `json:"amplitude,omitempty"`
	Wavelength float64 `json:"wavelength,omitempty"`
	Radius     float64 `json:"radius,omitempty"`
}

// Validate returns every problem with the track configuration.
func (tc TrackConfig) Validate() error {
	var err error
	if !(tc.Spacing > 0) {
		err = multierr.Append(err, errors.Errorf("track spacing must be positive, got %v", tc.Spacing))
	}
	switch strings.ToLower(tc.Kind) {
	case "":
		err = multierr.Append(err, utils.NewConfigValidationFieldRequiredError("track", "kind"))
	case TrackStraight:
		if !(tc.Length > 0) {
			err = multierr.Append(err, errors.Errorf("track length must be positive, got %v", tc.Length))
		}
	case TrackSine:
		if !(tc.Length > 0) {
			err = multierr.Append(err, errors.Errorf("track length must be positive, got %v", tc.Length))
		}
		if !(tc.Wavelength > 0) {
			err = multierr.Append(err, errors.Errorf("sine track wavelength must be positive, got %v", tc.Wavelength))
		}
	case TrackCircle:
		if !(tc.Radius > 0) {
			err = multierr.Append(err, errors.Errorf("circle track radius must be positive, got %v", tc.Radius))
		}
	default:
		err = multierr.Append(err, errors.Errorf("unknown track kind %q", tc.Kind))
	}
	return err
}

// Track is a polyline of waypoints in the world frame. Closed tracks wrap around.
type Track struct {
	Kind   string
	X      []float64
	Y      []float64
	Closed bool
}

// NewTrack samples the track described by tc.
func NewTrack(tc TrackConfig) (*Track, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	kind := strings.ToLower(tc.Kind)
	track := &Track{Kind: kind}
	switch kind {
	case TrackStraight, TrackSine:
		n := int(math.Floor(tc.Length/tc.Spacing)) + 1
		for i := 0; i < n; i++ {
			x := float64(i) * tc.Spacing
			y := 0.0
			if kind == TrackSine {
				y = tc.Amplitude * math.Sin(2*math.Pi*x/tc.Wavelength)
			}
			track.X = append(track.X, x)
			track.Y = append(track.Y, y)
		}
	case TrackCircle:
		// Counter-clockwise from the origin, centered on (0, Radius).
		n := int(math.Ceil(2 * math.Pi * tc.Radius / tc.Spacing))
		for i := 0; i < n; i++ {
			theta := 2 * math.Pi * float64(i) / float64(n)
			track.X = append(track.X, tc.Radius*math.Sin(theta))
			track.Y = append(track.Y, tc.Radius*(1-math.Cos(theta)))
		}
		track.Closed = true
	}
	return track, nil
}

// Len is the number of waypoints.
func (tr *Track) Len() int {
	return len(tr.X)
}

// Nearest returns the index of the waypoint closest to (x, y).
func (tr *Track) Nearest(x, y float64) int {
	best, bestDist := 0, math.Inf(1)
	for i := range tr.X {
		if d := math.Hypot(tr.X[i]-x, tr.Y[i]-y); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Ahead returns up to count waypoints starting at index start. Open tracks may return fewer.
func (tr *Track) Ahead(start, count int) (xs, ys []float64) {
	for i := 0; i < count; i++ {
		j := start + i
		if tr.Closed {
			j %= tr.Len()
		} else if j >= tr.Len() {
			break
		}
		xs = append(xs, tr.X[j])
		ys = append(ys, tr.Y[j])
	}
	return xs, ys
}
