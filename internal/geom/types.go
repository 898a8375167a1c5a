package geom

import (
	"math"

	"github.com/unixpickle/model3d/model3d"
)

// Box is an axis-aligned bounding box. The zero value is empty.
type Box struct {
	Min   model3d.Coord3D
	Max   model3d.Coord3D
	valid bool
}

// IsEmpty reports whether no point has been added to the box.
func (b Box) IsEmpty() bool { return !b.valid }

// ExpandByPoint grows the box to contain p.
func (b *Box) ExpandByPoint(p model3d.Coord3D) {
	if !b.valid {
		b.Min, b.Max, b.valid = p, p, true
		return
	}
	b.Min = b.Min.Min(p)
	b.Max = b.Max.Max(p)
}

// ExpandByBox grows the box to contain o. Empty boxes are ignored.
func (b *Box) ExpandByBox(o Box) {
	if o.IsEmpty() {
		return
	}
	b.ExpandByPoint(o.Min)
	b.ExpandByPoint(o.Max)
}

func (b Box) Center() model3d.Coord3D {
	if b.IsEmpty() {
		return model3d.Coord3D{}
	}
	return b.Min.Add(b.Max).Scale(0.5)
}

func (b Box) Size() model3d.Coord3D {
	if b.IsEmpty() {
		return model3d.Coord3D{}
	}
	return b.Max.Sub(b.Min)
}

// MaxExtent is the largest side of the box.
func (b Box) MaxExtent() float64 {
	s := b.Size()
	return math.Max(s.X, math.Max(s.Y, s.Z))
}

// Kind tags the variants of a decoded object.
type Kind int

const (
	KindMesh Kind = iota
	KindCommonObject
)

func (k Kind) String() string {
	switch k {
	case KindMesh:
		return "mesh"
	case KindCommonObject:
		return "object"
	}
	return "unknown"
}

// Object is a piece of geometry produced by decoding a response item.
type Object interface {
	Kind() Kind
	Bounds() Box
}

// Mesh is an ordered triangle soup.
type Mesh struct {
	Triangles []*model3d.Triangle
}

func NewMesh(tris []*model3d.Triangle) *Mesh {
	return &Mesh{Triangles: tris}
}

func (m *Mesh) Kind() Kind { return KindMesh }

func (m *Mesh) Bounds() Box {
	var b Box
	for _, t := range m.Triangles {
		for _, p := range t {
			b.ExpandByPoint(p)
		}
	}
	return b
}

// CommonObject is any non-mesh object the kernel understands: points, lines
// and polylines. Points are connected in order when Connected is set.
type CommonObject struct {
	ObjectType string
	Points     []model3d.Coord3D
	Connected  bool
}

func (o *CommonObject) Kind() Kind { return KindCommonObject }

func (o *CommonObject) Bounds() Box {
	var b Box
	for _, p := range o.Points {
		b.ExpandByPoint(p)
	}
	return b
}
