package scene

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unixpickle/model3d/model3d"

	"rhinoview/internal/geom"
)

func TestScene_RemoveNonLightsKeepsLights(t *testing.T) {
	s := NewWithDefaultLights()
	g := NewGroup("old")
	g.Add(NewMeshNode("m", boxMesh(model3d.XYZ(0, 0, 0), model3d.XYZ(1, 1, 1)), nil))
	s.Add(g, NewPointsNode("p", []model3d.Coord3D{model3d.XYZ(1, 2, 3)}, nil))

	assert.Equal(t, 2, s.RemoveNonLights())

	children := s.Children()
	require.Len(t, children, 2)
	for _, c := range children {
		assert.True(t, c.IsLight())
	}
	assert.Nil(t, g.Parent())
	assert.Empty(t, s.Meshes())
}

func TestNode_AddReparents(t *testing.T) {
	a, b := NewGroup("a"), NewGroup("b")
	child := NewGroup("child")
	a.Add(child)
	b.Add(child)

	assert.Empty(t, a.Children())
	assert.Equal(t, []*Node{child}, b.Children())
	assert.Same(t, b, child.Parent())
}

func TestNode_BoundsIgnoresLights(t *testing.T) {
	g := NewGroup("g")
	g.Add(
		NewLightNode("l", Light{Kind: LightAmbient}),
		NewLineNode("line", []model3d.Coord3D{model3d.XYZ(-1, 0, 0), model3d.XYZ(1, 2, 0)}, nil),
	)
	b := g.Bounds()
	assert.Equal(t, model3d.XYZ(-1, 0, 0), b.Min)
	assert.Equal(t, model3d.XYZ(1, 2, 0), b.Max)
}

func TestDocument_Release(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.Add(&geom.CommonObject{ObjectType: "Point", Points: []model3d.Coord3D{{}}}))
	assert.Equal(t, 1, doc.Len())

	doc.Release()
	assert.True(t, doc.Released())
	assert.Equal(t, 0, doc.Len())
	assert.ErrorIs(t, doc.Add(&geom.CommonObject{}), ErrDocumentReleased)
	_, err := doc.MarshalBinary()
	assert.ErrorIs(t, err, ErrDocumentReleased)
	doc.Release()
}

func TestDocument_KeepsDuplicates(t *testing.T) {
	doc := NewDocument()
	m := boxMesh(model3d.XYZ(0, 0, 0), model3d.XYZ(1, 1, 1))
	require.NoError(t, doc.Add(m))
	require.NoError(t, doc.Add(m))
	assert.Equal(t, 2, doc.Len())
}

func TestDocument_ArchiveRoundTrip(t *testing.T) {
	doc := NewDocument()
	mesh := boxMesh(model3d.XYZ(0, 0, 0), model3d.XYZ(2, 3, 4))
	line := &geom.CommonObject{ObjectType: "Line", Points: []model3d.Coord3D{model3d.XYZ(0, 0, 0), model3d.XYZ(1, 1, 1)}, Connected: true}
	require.NoError(t, doc.Add(mesh))
	require.NoError(t, doc.Add(line))

	data, err := doc.MarshalBinary()
	require.NoError(t, err)

	back, err := ReadDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc.ID(), back.ID())
	assert.Equal(t, []geom.Object{mesh, line}, back.Objects())

	_, err = ReadDocument([]byte("garbage"))
	assert.Error(t, err)
}

func TestImporter_Parse(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.Add(boxMesh(model3d.XYZ(0, 0, 0), model3d.XYZ(1, 1, 1))))
	require.NoError(t, doc.Add(&geom.CommonObject{ObjectType: "Point", Points: []model3d.Coord3D{model3d.XYZ(5, 5, 5)}}))
	require.NoError(t, doc.Add(&geom.CommonObject{ObjectType: "Line", Points: []model3d.Coord3D{{}, model3d.XYZ(1, 0, 0)}, Connected: true}))
	data, err := doc.MarshalBinary()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	root, err := NewImporter().Parse(ctx, data).Wait(ctx)
	require.NoError(t, err)

	children := root.Children()
	require.Len(t, children, 3)
	assert.Equal(t, NodeMesh, children[0].Kind)
	assert.Equal(t, MaterialImported, children[0].Material.Kind)
	assert.Equal(t, NodePoints, children[1].Kind)
	assert.Equal(t, NodeLine, children[2].Kind)
}

func TestImporter_ParseError(t *testing.T) {
	f := NewImporter().Parse(context.Background(), []byte("not an archive"))
	<-f.Done()
	_, err := f.Wait(context.Background())
	assert.Error(t, err)
}

func TestImporter_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewImporter().Parse(ctx, nil).Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}
