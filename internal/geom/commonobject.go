package geom

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/unixpickle/model3d/model3d"
)

// ErrUnsupportedObject is returned for JSON objects that are not one of the
// shapes the built-in kernel recognizes.
var ErrUnsupportedObject = errors.New("geom: unsupported object encoding")

type bufferGeometry struct {
	Data struct {
		Attributes struct {
			Position struct {
				ItemSize int       `mapstructure:"itemSize"`
				Array    []float64 `mapstructure:"array"`
			} `mapstructure:"position"`
		} `mapstructure:"attributes"`
		Index *struct {
			Array []float64 `mapstructure:"array"`
		} `mapstructure:"index"`
	} `mapstructure:"data"`
}

type faceMesh struct {
	Vertices [][]float64 `mapstructure:"vertices"`
	Faces    [][]float64 `mapstructure:"faces"`
}

type point3d struct {
	X float64 `mapstructure:"X"`
	Y float64 `mapstructure:"Y"`
	Z float64 `mapstructure:"Z"`
}

type line struct {
	From point3d `mapstructure:"From"`
	To   point3d `mapstructure:"To"`
}

// DecodeCommonObject decodes the JSON object encodings the built-in kernel
// understands:
//
//   - three.js BufferGeometry JSON ({"data": {"attributes": {"position": ...}}})
//   - vertex/face mesh JSON ({"vertices": [[x,y,z]...], "faces": [[a,b,c(,d)]...]})
//   - Rhino Point3d ({"X","Y","Z"}) and Line ({"From","To"})
//   - an archive envelope ({"archive3dm": n, "data": "<base64>"}) whose data is
//     a compressed mesh
func DecodeCommonObject(v map[string]any) (Object, error) {
	has := func(keys ...string) bool {
		for _, k := range keys {
			if _, ok := v[k]; !ok {
				return false
			}
		}
		return true
	}
	decode := func(out any) error {
		if err := mapstructure.Decode(v, out); err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupportedObject, err)
		}
		return nil
	}
	switch data := v["data"].(type) {
	case map[string]any:
		if _, ok := data["attributes"]; ok {
			var bg bufferGeometry
			if err := decode(&bg); err != nil {
				return nil, err
			}
			return bufferGeometryMesh(bg)
		}
	case string:
		if has("archive3dm") {
			m, err := DecompressBase64String(data)
			if err != nil {
				return nil, fmt.Errorf("%w: archive: %v", ErrUnsupportedObject, err)
			}
			return m, nil
		}
	}
	switch {
	case has("vertices", "faces"):
		var fm faceMesh
		if err := decode(&fm); err != nil {
			return nil, err
		}
		return faceMeshMesh(fm)
	case has("From", "To"):
		var l line
		if err := decode(&l); err != nil {
			return nil, err
		}
		return &CommonObject{
			ObjectType: "Line",
			Points:     []model3d.Coord3D{l.From.coord(), l.To.coord()},
			Connected:  true,
		}, nil
	case has("X", "Y", "Z"):
		var p point3d
		if err := decode(&p); err != nil {
			return nil, err
		}
		return &CommonObject{ObjectType: "Point", Points: []model3d.Coord3D{p.coord()}}, nil
	}
	return nil, ErrUnsupportedObject
}

func (p point3d) coord() model3d.Coord3D { return model3d.XYZ(p.X, p.Y, p.Z) }

func bufferGeometryMesh(bg bufferGeometry) (*Mesh, error) {
	pos := bg.Data.Attributes.Position
	size := pos.ItemSize
	if size == 0 {
		size = 3
	}
	if size < 3 || len(pos.Array)%size != 0 {
		return nil, fmt.Errorf("%w: position attribute of %d values with item size %d", ErrUnsupportedObject, len(pos.Array), size)
	}
	verts := make([]model3d.Coord3D, 0, len(pos.Array)/size)
	for i := 0; i+size <= len(pos.Array); i += size {
		verts = append(verts, model3d.XYZ(pos.Array[i], pos.Array[i+1], pos.Array[i+2]))
	}
	var index []int
	if bg.Data.Index != nil {
		for _, f := range bg.Data.Index.Array {
			index = append(index, int(f))
		}
	} else {
		for i := range verts {
			index = append(index, i)
		}
	}
	if len(index)%3 != 0 {
		return nil, fmt.Errorf("%w: index count %d is not a multiple of 3", ErrUnsupportedObject, len(index))
	}
	var tris []*model3d.Triangle
	for i := 0; i < len(index); i += 3 {
		t, ok := triangle(verts, index[i], index[i+1], index[i+2])
		if !ok {
			return nil, fmt.Errorf("%w: index out of range", ErrUnsupportedObject)
		}
		tris = append(tris, t)
	}
	if len(tris) == 0 {
		return nil, fmt.Errorf("%w: empty mesh", ErrUnsupportedObject)
	}
	return NewMesh(tris), nil
}

func faceMeshMesh(fm faceMesh) (*Mesh, error) {
	verts := make([]model3d.Coord3D, 0, len(fm.Vertices))
	for _, v := range fm.Vertices {
		if len(v) < 3 {
			return nil, fmt.Errorf("%w: vertex with %d components", ErrUnsupportedObject, len(v))
		}
		verts = append(verts, model3d.XYZ(v[0], v[1], v[2]))
	}
	var tris []*model3d.Triangle
	add := func(a, b, c int) error {
		t, ok := triangle(verts, a, b, c)
		if !ok {
			return fmt.Errorf("%w: face index out of range", ErrUnsupportedObject)
		}
		tris = append(tris, t)
		return nil
	}
	for _, f := range fm.Faces {
		switch {
		case len(f) == 3 || (len(f) == 4 && f[2] == f[3]):
			if err := add(int(f[0]), int(f[1]), int(f[2])); err != nil {
				return nil, err
			}
		case len(f) == 4:
			// quads are split along the 0-2 diagonal
			if err := add(int(f[0]), int(f[1]), int(f[2])); err != nil {
				return nil, err
			}
			if err := add(int(f[0]), int(f[2]), int(f[3])); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w: face with %d indices", ErrUnsupportedObject, len(f))
		}
	}
	if len(tris) == 0 {
		return nil, fmt.Errorf("%w: empty mesh", ErrUnsupportedObject)
	}
	return NewMesh(tris), nil
}

func triangle(verts []model3d.Coord3D, a, b, c int) (*model3d.Triangle, bool) {
	n := len(verts)
	if a < 0 || b < 0 || c < 0 || a >= n || b >= n || c >= n {
		return nil, false
	}
	return &model3d.Triangle{verts[a], verts[b], verts[c]}, true
}
