package sim

import (
	"math"

	"go.viam.com/mpc/utils"
)

// Pose is a position and heading in the world frame. Psi is counter-clockwise from +X.
type Pose struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Psi float64 `json:"psi"`
}

// Vehicle is a kinematic bicycle. It integrates commands with the same sign convention as the
// controller's model: positive steering turns clockwise.
type Vehicle struct {
	Pose
	Speed float64
	lf    float64
}

// NewVehicle returns a stationary vehicle at pose.
func NewVehicle(pose Pose, lf float64) *Vehicle {
	return &Vehicle{Pose: pose, lf: lf}
}

// Step applies steer and speed for dt seconds.
func (v *Vehicle) Step(steer, speed, dt float64) {
	v.X += speed * math.Cos(v.Psi) * dt
	v.Y += speed * math.Sin(v.Psi) * dt
	v.Psi = utils.WrapAngle(v.Psi - speed*steer/v.lf*dt)
	v.Speed = speed
}

// ToVehicleFrame expresses world points in the frame of pose, with +X forward and +Y left.
func ToVehicleFrame(pose Pose, xs, ys []float64) (vx, vy []float64) {
	cos, sin := math.Cos(pose.Psi), math.Sin(pose.Psi)
	vx = make([]float64, len(xs))
	vy = make([]float64, len(xs))
	for i := range xs {
		dx, dy := xs[i]-pose.X, ys[i]-pose.Y
		vx[i] = dx*cos + dy*sin
		vy[i] = -dx*sin + dy*cos
	}
	return vx, vy
}
