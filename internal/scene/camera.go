package scene

import (
	"math"

	"github.com/unixpickle/model3d/model3d"

	"rhinoview/internal/geom"
)

const (
	// DefaultFitOffset leaves a 10% margin around fitted geometry.
	DefaultFitOffset = 1.1
	// minFitExtent stands in for the extent of point-sized geometry.
	minFitExtent = 1.0
)

var (
	// Rhino models are z-up.
	defaultUp        = model3d.XYZ(0, 0, 1)
	defaultDirection = model3d.XYZ(-1, -1, -1).Normalize()
)

// Camera is a perspective camera. FOV is the vertical field of view in
// degrees; Aspect is width over height.
type Camera struct {
	FOV      float64
	Aspect   float64
	Near     float64
	Far      float64
	Position model3d.Coord3D
	Target   model3d.Coord3D
	Up       model3d.Coord3D
}

func NewCamera(fov, aspect, near, far float64) *Camera {
	return &Camera{FOV: fov, Aspect: aspect, Near: near, Far: far, Up: defaultUp}
}

// NewDefaultCamera matches the viewer's start-up view: 45° looking at the
// origin from (200, 200, 200).
func NewDefaultCamera(aspect float64) *Camera {
	c := NewCamera(45, aspect, 1, 1000)
	c.Position = model3d.XYZ(200, 200, 200)
	return c
}

func (c *Camera) LookAt(target model3d.Coord3D) { c.Target = target }

// basis returns the camera's forward, right and up unit vectors.
func (c *Camera) basis() (fwd, right, up model3d.Coord3D, ok bool) {
	f := c.Target.Sub(c.Position)
	if f.Norm() == 0 {
		return fwd, right, up, false
	}
	fwd = f.Normalize()
	r := fwd.Cross(c.Up)
	if r.Norm() == 0 {
		// looking straight along the up axis
		r = fwd.Cross(model3d.XYZ(0, 1, 0))
		if r.Norm() == 0 {
			return fwd, right, up, false
		}
	}
	right = r.Normalize()
	up = right.Cross(fwd)
	return fwd, right, up, true
}

// Project maps p to normalized device coordinates in [-1, 1]. ok is false
// for points behind the near plane.
func (c *Camera) Project(p model3d.Coord3D) (x, y float64, ok bool) {
	fwd, right, up, ok := c.basis()
	if !ok {
		return 0, 0, false
	}
	v := p.Sub(c.Position)
	z := v.Dot(fwd)
	if z <= c.Near || z <= 0 {
		return 0, 0, false
	}
	aspect := c.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	t := math.Tan(math.Pi * c.FOV / 360)
	if t <= 0 {
		return 0, 0, false
	}
	x = v.Dot(right) / (z * t * aspect)
	y = v.Dot(up) / (z * t)
	return x, y, true
}

// Controls orbit the camera around Target.
type Controls struct {
	Target      model3d.Coord3D
	MinDistance float64
	MaxDistance float64
}

func NewControls() *Controls {
	return &Controls{MaxDistance: math.Inf(1)}
}

// Update clamps the camera distance and points it at the target.
func (ctl *Controls) Update(cam *Camera) {
	offset := cam.Position.Sub(ctl.Target)
	d := offset.Norm()
	if d > 0 {
		clamped := math.Max(ctl.MinDistance, math.Min(ctl.MaxDistance, d))
		if clamped != d {
			cam.Position = ctl.Target.Add(offset.Scale(clamped / d))
		}
	}
	cam.LookAt(ctl.Target)
}

// Orbit rotates the camera around the target: azimuth about the up axis,
// polar towards or away from it. Angles are in radians.
func (ctl *Controls) Orbit(cam *Camera, azimuth, polar float64) {
	offset := cam.Position.Sub(ctl.Target)
	r := offset.Norm()
	if r == 0 {
		return
	}
	theta := math.Atan2(offset.Y, offset.X) + azimuth
	phi := math.Acos(clamp(offset.Z/r, -1, 1)) + polar
	const eps = 1e-4
	phi = clamp(phi, eps, math.Pi-eps)
	cam.Position = ctl.Target.Add(model3d.XYZ(
		r*math.Sin(phi)*math.Cos(theta),
		r*math.Sin(phi)*math.Sin(theta),
		r*math.Cos(phi),
	))
	ctl.Update(cam)
}

// Dolly scales the camera distance by factor (< 1 moves closer).
func (ctl *Controls) Dolly(cam *Camera, factor float64) {
	if factor <= 0 {
		return
	}
	offset := cam.Position.Sub(ctl.Target)
	cam.Position = ctl.Target.Add(offset.Scale(factor))
	ctl.Update(cam)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Fit frames the non-light nodes: the camera keeps its viewing direction and
// moves so the bounding box fills the view with fitOffset margin. It reports
// false and leaves camera and controls untouched when there is nothing to
// frame.
func Fit(cam *Camera, ctl *Controls, nodes []*Node, fitOffset float64) bool {
	var box geom.Box
	for _, n := range nodes {
		if n.IsLight() {
			continue
		}
		box.ExpandByBox(n.Bounds())
	}
	tanHalf := math.Tan(math.Pi * cam.FOV / 360)
	if box.IsEmpty() || !(tanHalf > 0) {
		return false
	}
	if fitOffset <= 0 {
		fitOffset = DefaultFitOffset
	}
	center := box.Center()
	maxSize := box.MaxExtent()
	if maxSize <= 0 {
		maxSize = minFitExtent
	}
	aspect := cam.Aspect
	if aspect <= 0 {
		aspect = 1
	}
	fitHeightDistance := maxSize / (2 * tanHalf)
	fitWidthDistance := fitHeightDistance / aspect
	distance := fitOffset * math.Max(fitHeightDistance, fitWidthDistance)

	dir := ctl.Target.Sub(cam.Position)
	if dir.Norm() == 0 {
		dir = defaultDirection
	} else {
		dir = dir.Normalize()
	}
	direction := dir.Scale(distance)

	ctl.MaxDistance = distance * 10
	ctl.Target = center
	cam.Near = distance / 100
	cam.Far = distance * 100
	cam.Position = center.Sub(direction)
	ctl.Update(cam)
	return true
}
