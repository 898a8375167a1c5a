package scene

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"

	"rhinoview/internal/geom"
)

func boxMesh(min, max model3d.Coord3D) *geom.Mesh {
	return geom.NewMesh([]*model3d.Triangle{
		{min, model3d.XYZ(max.X, min.Y, min.Z), max},
	})
}

func assertCoordInDelta(t *testing.T, want, got model3d.Coord3D) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
	assert.InDelta(t, want.Z, got.Z, 1e-9)
}

func TestFit_Distance(t *testing.T) {
	cam := NewDefaultCamera(2)
	ctl := NewControls()
	node := NewMeshNode("m", boxMesh(model3d.XYZ(0, 0, 0), model3d.XYZ(10, 10, 50)), nil)

	require.True(t, Fit(cam, ctl, []*Node{node}, DefaultFitOffset))

	heightDistance := 50 / (2 * math.Tan(math.Pi*45/360))
	widthDistance := heightDistance / 2
	distance := 1.1 * math.Max(heightDistance, widthDistance)

	center := model3d.XYZ(5, 5, 25)
	assertCoordInDelta(t, center, ctl.Target)
	assertCoordInDelta(t, center, cam.Target)
	assert.InDelta(t, distance, cam.Position.Dist(center), 1e-9)
	assert.InDelta(t, distance/100, cam.Near, 1e-9)
	assert.InDelta(t, distance*100, cam.Far, 1e-9)
	assert.InDelta(t, distance*10, ctl.MaxDistance, 1e-9)

	// the camera keeps looking along (-1,-1,-1)
	dir := center.Sub(cam.Position).Normalize()
	assertCoordInDelta(t, model3d.XYZ(-1, -1, -1).Normalize(), dir)
}

func TestFit_NarrowAspectUsesWidth(t *testing.T) {
	cam := NewDefaultCamera(0.5)
	ctl := NewControls()
	node := NewMeshNode("m", boxMesh(model3d.XYZ(0, 0, 0), model3d.XYZ(4, 4, 4)), nil)

	require.True(t, Fit(cam, ctl, []*Node{node}, 1))

	heightDistance := 4 / (2 * math.Tan(math.Pi*45/360))
	assert.InDelta(t, heightDistance/0.5, cam.Position.Dist(ctl.Target), 1e-9)
}

func TestFit_Idempotent(t *testing.T) {
	cam := NewDefaultCamera(1.5)
	ctl := NewControls()
	nodes := []*Node{NewMeshNode("m", boxMesh(model3d.XYZ(-3, 2, 0), model3d.XYZ(7, 9, 4)), nil)}

	require.True(t, Fit(cam, ctl, nodes, DefaultFitOffset))
	pos, target, near, far, maxD := cam.Position, ctl.Target, cam.Near, cam.Far, ctl.MaxDistance

	require.True(t, Fit(cam, ctl, nodes, DefaultFitOffset))
	assertCoordInDelta(t, pos, cam.Position)
	assertCoordInDelta(t, target, ctl.Target)
	assert.InDelta(t, near, cam.Near, 1e-9)
	assert.InDelta(t, far, cam.Far, 1e-9)
	assert.InDelta(t, maxD, ctl.MaxDistance, 1e-9)
}

func TestFit_PointSizedObject(t *testing.T) {
	cam := NewDefaultCamera(1)
	ctl := NewControls()
	p := model3d.XYZ(3, 3, 3)

	require.True(t, Fit(cam, ctl, []*Node{NewPointsNode("p", []model3d.Coord3D{p}, nil)}, DefaultFitOffset))

	d := cam.Position.Dist(p)
	assert.False(t, math.IsNaN(d) || math.IsInf(d, 0))
	assert.Greater(t, d, 0.0)
	assert.Greater(t, cam.Near, 0.0)
	assertCoordInDelta(t, p, ctl.Target)
}

func TestFit_EmptyKeepsCamera(t *testing.T) {
	cam := NewDefaultCamera(1)
	ctl := NewControls()
	before, ctlBefore := *cam, *ctl

	light := NewLightNode("sun", Light{Kind: LightDirectional, Intensity: 2})
	assert.False(t, Fit(cam, ctl, []*Node{light}, DefaultFitOffset))
	assert.False(t, Fit(cam, ctl, nil, DefaultFitOffset))
	assert.Equal(t, before, *cam)
	assert.Equal(t, ctlBefore, *ctl)
}

func TestFit_CameraOnTargetFallsBack(t *testing.T) {
	cam := NewDefaultCamera(1)
	ctl := NewControls()
	ctl.Target = cam.Position
	node := NewMeshNode("m", boxMesh(model3d.XYZ(0, 0, 0), model3d.XYZ(1, 1, 1)), nil)

	require.True(t, Fit(cam, ctl, []*Node{node}, DefaultFitOffset))
	dir := ctl.Target.Sub(cam.Position).Normalize()
	assertCoordInDelta(t, model3d.XYZ(-1, -1, -1).Normalize(), dir)
}

func TestCamera_Project(t *testing.T) {
	cam := NewCamera(45, 1, 0.1, 100)
	cam.Position = model3d.XYZ(0, -10, 0)
	cam.LookAt(model3d.XYZ(0, 0, 0))

	x, y, ok := cam.Project(model3d.XYZ(0, 0, 0))
	require.True(t, ok)
	assert.InDelta(t, 0, x, 1e-12)
	assert.InDelta(t, 0, y, 1e-12)

	x, y, ok = cam.Project(model3d.XYZ(1, 0, 2))
	require.True(t, ok)
	tanHalf := math.Tan(math.Pi * 45 / 360)
	assert.InDelta(t, 1/(10*tanHalf), x, 1e-12)
	assert.InDelta(t, 2/(10*tanHalf), y, 1e-12)

	_, _, ok = cam.Project(model3d.XYZ(0, -20, 0))
	assert.False(t, ok)
}

func TestControls_OrbitKeepsDistance(t *testing.T) {
	cam := NewCamera(45, 1, 0.1, 100)
	cam.Position = model3d.XYZ(10, 0, 0)
	ctl := NewControls()

	ctl.Orbit(cam, math.Pi/2, 0)
	assertCoordInDelta(t, model3d.XYZ(0, 10, 0), cam.Position)
	assert.InDelta(t, 10, cam.Position.Norm(), 1e-9)
}

func TestControls_DollyClampsToMaxDistance(t *testing.T) {
	cam := NewCamera(45, 1, 0.1, 100)
	cam.Position = model3d.XYZ(0, 0, 10)
	ctl := NewControls()
	ctl.MaxDistance = 15

	ctl.Dolly(cam, 3)
	assert.InDelta(t, 15, cam.Position.Norm(), 1e-9)

	ctl.Dolly(cam, 0.5)
	assert.InDelta(t, 7.5, cam.Position.Norm(), 1e-9)
}
