package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/unixpickle/model3d/model3d"

	"rhinoview/internal/scene"
)

func frontCamera() *scene.Camera {
	cam := scene.NewCamera(45, 1, 0.1, 100)
	cam.Position = model3d.XYZ(0, -10, 0)
	cam.LookAt(model3d.XYZ(0, 0, 0))
	return cam
}

func dots(b *brailleBuf) int {
	n := 0
	for _, line := range b.toLines() {
		n += len(strings.TrimSpace(strings.ReplaceAll(line, " ", "")))
	}
	return n
}

func TestSegment_DrawsVisibleEdge(t *testing.T) {
	b := newBrailleBuf(20, 10)
	p := projector{cam: frontCamera(), w: 40, h: 40}
	p.segment(b, model3d.XYZ(-1, 0, 0), model3d.XYZ(1, 0, 0))
	assert.Positive(t, dots(b))
}

func TestSegment_SkipsOffscreenEdge(t *testing.T) {
	b := newBrailleBuf(20, 10)
	p := projector{cam: frontCamera(), w: 40, h: 40}
	// right of the frustum but within the projection limit
	p.segment(b, model3d.XYZ(20, 0, -1), model3d.XYZ(20, 0, 1))
	// behind the camera
	p.segment(b, model3d.XYZ(0, -20, 0), model3d.XYZ(1, -20, 0))
	assert.Zero(t, dots(b))
}

func TestFacesCamera(t *testing.T) {
	p := projector{cam: frontCamera(), w: 40, h: 40}
	// normal (0,-1,0) points at the camera
	front := &model3d.Triangle{model3d.XYZ(0, 0, 0), model3d.XYZ(1, 0, 0), model3d.XYZ(0, 0, 1)}
	back := &model3d.Triangle{front[0], front[2], front[1]}
	assert.True(t, p.facesCamera(front))
	assert.False(t, p.facesCamera(back))
}
