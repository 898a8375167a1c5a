package geom

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/unixpickle/model3d/model3d"
)

// ErrNotCompressedGeometry is returned when a string payload does not carry
// an encoded mesh. Plain strings share the same type tag, so callers are
// expected to treat it as "not geometry" rather than as a failure.
var ErrNotCompressedGeometry = errors.New("geom: payload is not a compressed geometry encoding")

var gzipMagic = []byte{0x1f, 0x8b}

// DecompressBase64String decodes a base64 mesh payload: an STL document,
// binary or ASCII, optionally wrapped in gzip.
func DecompressBase64String(s string) (*Mesh, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrNotCompressedGeometry
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCompressedGeometry, err)
	}
	if bytes.HasPrefix(raw, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotCompressedGeometry, err)
		}
		raw, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotCompressedGeometry, err)
		}
	}
	tris, err := model3d.ReadSTL(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotCompressedGeometry, err)
	}
	if len(tris) == 0 {
		return nil, ErrNotCompressedGeometry
	}
	return NewMesh(tris), nil
}

// CompressBase64String is the inverse of DecompressBase64String.
func CompressBase64String(m *Mesh) (string, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := model3d.WriteSTL(zw, m.Triangles); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
