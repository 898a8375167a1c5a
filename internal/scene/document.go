package scene

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/unixpickle/model3d/model3d"

	"rhinoview/internal/geom"
)

// ErrDocumentReleased is returned when a released document is used.
var ErrDocumentReleased = errors.New("scene: document released")

const archiveMagic = "RVDOC\x01"

// Document owns the objects decoded from one evaluation response. It lives
// until the next response arrives and is then released.
type Document struct {
	id       string
	objects  []geom.Object
	released bool
}

func NewDocument() *Document {
	return &Document{id: uuid.NewString()}
}

func (d *Document) ID() string { return d.id }

// Add appends obj. Duplicates are kept.
func (d *Document) Add(obj geom.Object) error {
	if d.released {
		return ErrDocumentReleased
	}
	if obj == nil {
		return errors.New("scene: nil object")
	}
	d.objects = append(d.objects, obj)
	return nil
}

func (d *Document) Len() int { return len(d.objects) }

// Objects returns a copy of the owned objects in insertion order.
func (d *Document) Objects() []geom.Object {
	out := make([]geom.Object, len(d.objects))
	copy(out, d.objects)
	return out
}

// Release drops the owned objects. Releasing twice is harmless.
func (d *Document) Release() {
	d.released = true
	d.objects = nil
}

func (d *Document) Released() bool { return d.released }

type archivedObject struct {
	Kind       geom.Kind
	ObjectType string
	Triangles  [][9]float64
	Points     [][3]float64
	Connected  bool
}

type archive struct {
	ID      string
	Objects []archivedObject
}

// MarshalBinary serializes the document into the archive the importer reads
// and the exporter writes.
func (d *Document) MarshalBinary() ([]byte, error) {
	if d.released {
		return nil, ErrDocumentReleased
	}
	a := archive{ID: d.id, Objects: make([]archivedObject, 0, len(d.objects))}
	for _, obj := range d.objects {
		switch o := obj.(type) {
		case *geom.Mesh:
			ao := archivedObject{Kind: geom.KindMesh, Triangles: make([][9]float64, len(o.Triangles))}
			for i, t := range o.Triangles {
				ao.Triangles[i] = [9]float64{
					t[0].X, t[0].Y, t[0].Z,
					t[1].X, t[1].Y, t[1].Z,
					t[2].X, t[2].Y, t[2].Z,
				}
			}
			a.Objects = append(a.Objects, ao)
		case *geom.CommonObject:
			ao := archivedObject{Kind: geom.KindCommonObject, ObjectType: o.ObjectType, Connected: o.Connected}
			for _, p := range o.Points {
				ao.Points = append(ao.Points, p.Array())
			}
			a.Objects = append(a.Objects, ao)
		default:
			return nil, fmt.Errorf("scene: cannot archive %T", obj)
		}
	}
	var buf bytes.Buffer
	buf.WriteString(archiveMagic)
	if err := gob.NewEncoder(&buf).Encode(a); err != nil {
		return nil, fmt.Errorf("scene: encode document: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadDocument decodes an archive written by MarshalBinary.
func ReadDocument(data []byte) (*Document, error) {
	if !bytes.HasPrefix(data, []byte(archiveMagic)) {
		return nil, errors.New("scene: not a document archive")
	}
	var a archive
	if err := gob.NewDecoder(bytes.NewReader(data[len(archiveMagic):])).Decode(&a); err != nil {
		return nil, fmt.Errorf("scene: decode document: %w", err)
	}
	d := &Document{id: a.ID}
	for _, ao := range a.Objects {
		switch ao.Kind {
		case geom.KindMesh:
			tris := make([]*model3d.Triangle, len(ao.Triangles))
			for i, t := range ao.Triangles {
				tris[i] = &model3d.Triangle{
					model3d.XYZ(t[0], t[1], t[2]),
					model3d.XYZ(t[3], t[4], t[5]),
					model3d.XYZ(t[6], t[7], t[8]),
				}
			}
			d.objects = append(d.objects, geom.NewMesh(tris))
		case geom.KindCommonObject:
			co := &geom.CommonObject{ObjectType: ao.ObjectType, Connected: ao.Connected}
			for _, p := range ao.Points {
				co.Points = append(co.Points, model3d.NewCoord3DArray(p))
			}
			d.objects = append(d.objects, co)
		default:
			return nil, fmt.Errorf("scene: unknown archived object kind %d", ao.Kind)
		}
	}
	return d, nil
}
