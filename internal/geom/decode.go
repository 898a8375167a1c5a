package geom

import (
	"encoding/json"
	"strings"
)

// Kernel is the geometry kernel binding the decoder delegates to.
type Kernel interface {
	// DecompressBase64String decodes a compressed mesh carried as text.
	DecompressBase64String(s string) (Object, error)
	// DecodeCommonObject decodes a JSON-encoded geometric object.
	DecodeCommonObject(v map[string]any) (Object, error)
}

type builtinKernel struct{}

// DefaultKernel returns the kernel backed by this package's decoders.
func DefaultKernel() Kernel { return builtinKernel{} }

func (builtinKernel) DecompressBase64String(s string) (Object, error) {
	m, err := DecompressBase64String(s)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (builtinKernel) DecodeCommonObject(v map[string]any) (Object, error) {
	return DecodeCommonObject(v)
}

// Decoder turns response items into geometry.
type Decoder struct {
	kernel Kernel
}

// NewDecoder returns a decoder using k, or the default kernel when k is nil.
func NewDecoder(k Kernel) *Decoder {
	if k == nil {
		k = DefaultKernel()
	}
	return &Decoder{kernel: k}
}

// IsStringTag reports whether an item type tag denotes a textual payload.
func IsStringTag(tag string) bool {
	t := strings.ToLower(strings.TrimSpace(tag))
	return t == "system.string" || strings.HasSuffix(t, "string")
}

// TryDecode decodes one item. ok is false when the item is not geometry or
// could not be decoded; failures are never surfaced individually.
func (d *Decoder) TryDecode(tag, payload string) (obj Object, ok bool) {
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, false
	}
	if IsStringTag(tag) {
		s, isStr := v.(string)
		if !isStr {
			return nil, false
		}
		obj, err := d.kernel.DecompressBase64String(s)
		if err != nil || obj == nil {
			return nil, false
		}
		return obj, true
	}
	m, isObj := v.(map[string]any)
	if !isObj {
		return nil, false
	}
	obj, err := d.kernel.DecodeCommonObject(m)
	if err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
