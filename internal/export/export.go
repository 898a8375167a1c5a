// Package export writes the viewer's current geometry to disk.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/unixpickle/model3d/model3d"

	"rhinoview/internal/scene"
	"rhinoview/internal/viewer"
)

// ErrNothingToExport is returned when the scene has no meshes or there is no
// live document.
var ErrNothingToExport = errors.New("export: nothing to export")

// DefaultPrefix starts every exported file name.
const DefaultPrefix = "rhinoFile"

type Format int

const (
	// FormatSTL is ASCII STL, triangles only.
	FormatSTL Format = iota
	FormatBinarySTL
	// FormatDocument is the live document archive.
	FormatDocument
)

func (f Format) String() string {
	switch f {
	case FormatSTL:
		return "stl"
	case FormatBinarySTL:
		return "binary-stl"
	case FormatDocument:
		return "document"
	}
	return "unknown"
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "stl", "ascii":
		return FormatSTL, nil
	case "binary", "binary-stl", "stlb":
		return FormatBinarySTL, nil
	case "document", "doc", "rvdoc":
		return FormatDocument, nil
	}
	return FormatSTL, fmt.Errorf("export: unknown format %q", s)
}

func (f Format) Extension() string {
	if f == FormatDocument {
		return ".rvdoc"
	}
	return ".stl"
}

// Filename builds e.g. rhinoFile_2024-03-09_14-05-59.stl.
func Filename(prefix string, now time.Time, f Format) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "_" + now.Format("2006-01-02_15-04-05") + f.Extension()
}

// SceneTriangles collects the triangles of every mesh node in traversal
// order.
func SceneTriangles(s *scene.Scene) []*model3d.Triangle {
	var tris []*model3d.Triangle
	for _, n := range s.Meshes() {
		if n.Mesh != nil {
			tris = append(tris, n.Mesh.Triangles...)
		}
	}
	return tris
}

// WriteASCIISTL writes tris as an ASCII STL solid.
func WriteASCIISTL(w io.Writer, name string, tris []*model3d.Triangle) error {
	if name == "" {
		name = "exported"
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "solid %s\n", name)
	for _, t := range tris {
		n := t[1].Sub(t[0]).Cross(t[2].Sub(t[0]))
		if n.Norm() > 0 {
			n = n.Normalize()
		}
		fmt.Fprintf(bw, "facet normal %g %g %g\n", n.X, n.Y, n.Z)
		bw.WriteString("outer loop\n")
		for _, p := range t {
			fmt.Fprintf(bw, "vertex %g %g %g\n", p.X, p.Y, p.Z)
		}
		bw.WriteString("endloop\nendfacet\n")
	}
	fmt.Fprintf(bw, "endsolid %s\n", name)
	return bw.Flush()
}

// Write encodes the state's geometry in format f.
func Write(w io.Writer, f Format, st *viewer.State) error {
	switch f {
	case FormatSTL, FormatBinarySTL:
		tris := SceneTriangles(st.Scene)
		if len(tris) == 0 {
			return ErrNothingToExport
		}
		if f == FormatSTL {
			return WriteASCIISTL(w, "exported", tris)
		}
		return model3d.WriteSTL(w, tris)
	case FormatDocument:
		doc := st.Document()
		if doc == nil || doc.Len() == 0 {
			return ErrNothingToExport
		}
		data, err := doc.MarshalBinary()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("export: unknown format %d", f)
}

// WriteFile writes a timestamped export into dir and returns its path. The
// file only appears once it is complete.
func WriteFile(dir string, f Format, st *viewer.State, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, Filename(DefaultPrefix, now, f))
	tmp, err := os.CreateTemp(dir, ".rhinoview-export-*")
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, f, st); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return path, nil
}
