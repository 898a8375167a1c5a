// Package viewer turns evaluation responses into scene contents. It owns the
// viewer state (scene, camera, controls and the live document), the
// materialization pipeline and the request controller that feeds it.
package viewer

import (
	"rhinoview/internal/scene"
)

// State is everything the viewer renders from. It is confined to one
// goroutine, the UI event loop or a one-shot command.
type State struct {
	Scene    *scene.Scene
	Camera   *scene.Camera
	Controls *scene.Controls

	doc *scene.Document
}

// NewState returns the start-up view: default lights, a 45° camera at
// (200, 200, 200) looking at the origin.
func NewState(aspect float64) *State {
	s := &State{
		Scene:    scene.NewWithDefaultLights(),
		Camera:   scene.NewDefaultCamera(aspect),
		Controls: scene.NewControls(),
	}
	s.Controls.Update(s.Camera)
	return s
}

// Document is the live document, nil before the first response.
func (s *State) Document() *scene.Document { return s.doc }

// SetAspect updates the camera after a resize.
func (s *State) SetAspect(aspect float64) {
	if aspect > 0 {
		s.Camera.Aspect = aspect
	}
}

// Geometry returns the top-level non-light nodes.
func (s *State) Geometry() []*scene.Node {
	var out []*scene.Node
	for _, n := range s.Scene.Children() {
		if !n.IsLight() {
			out = append(out, n)
		}
	}
	return out
}

// Refit frames the current geometry again.
func (s *State) Refit(fitOffset float64) bool {
	return scene.Fit(s.Camera, s.Controls, s.Geometry(), fitOffset)
}
