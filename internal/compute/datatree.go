// Package compute talks to a RhinoCompute server: it builds Grasshopper data
// trees from parameter values, posts evaluation requests and decodes the
// nested result trees.
package compute

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Item is one value in a data tree branch. Data holds JSON text.
type Item struct {
	Type string `json:"type"`
	Data string `json:"data"`
	ID   string `json:"id,omitempty"`
}

// InnerTree maps branch paths to items and remembers the order in which
// branches were added or appeared on the wire.
type InnerTree struct {
	paths    []string
	branches map[string][]Item
}

// Append adds items to the branch at path, creating it if needed. A branch
// appended with no items is kept as an empty branch.
func (t *InnerTree) Append(path string, items ...Item) {
	if t.branches == nil {
		t.branches = make(map[string][]Item)
	}
	if _, ok := t.branches[path]; !ok {
		t.paths = append(t.paths, path)
		t.branches[path] = []Item{}
	}
	t.branches[path] = append(t.branches[path], items...)
}

// Paths returns branch paths in insertion order.
func (t InnerTree) Paths() []string {
	out := make([]string, len(t.paths))
	copy(out, t.paths)
	return out
}

func (t InnerTree) Branch(path string) []Item { return t.branches[path] }

// Len is the number of branches.
func (t InnerTree) Len() int { return len(t.paths) }

func (t InnerTree) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range t.paths {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(t.branches[p])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps branches in document order; encoding/json maps would
// lose it.
func (t *InnerTree) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return fmt.Errorf("compute: invalid InnerTree JSON")
	}
	res := gjson.ParseBytes(b)
	*t = InnerTree{}
	if res.Type == gjson.Null {
		return nil
	}
	if !res.IsObject() {
		return fmt.Errorf("compute: InnerTree must be an object, got %s", res.Type)
	}
	var err error
	res.ForEach(func(key, value gjson.Result) bool {
		var items []Item
		if value.Type != gjson.Null {
			if err = json.Unmarshal([]byte(value.Raw), &items); err != nil {
				err = fmt.Errorf("compute: branch %s: %w", key.String(), err)
				return false
			}
		}
		t.Append(key.String(), items...)
		return true
	})
	return err
}

// DataTree is a named parameter carrier: one Grasshopper input or output.
type DataTree struct {
	ParamName string    `json:"ParamName"`
	InnerTree InnerTree `json:"InnerTree"`
}

func NewDataTree(name string) *DataTree {
	return &DataTree{ParamName: name}
}

// BranchPath formats a Grasshopper branch path, e.g. [0 1] -> "{0;1}".
func BranchPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strconv.Itoa(p)
	}
	return "{" + strings.Join(parts, ";") + "}"
}

// Append JSON-encodes values into the branch at path.
func (d *DataTree) Append(path []int, values ...any) error {
	items := make([]Item, 0, len(values))
	for _, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("compute: encode %s value: %w", d.ParamName, err)
		}
		items = append(items, Item{Type: typeTag(v), Data: string(data)})
	}
	d.InnerTree.Append(BranchPath(path), items...)
	return nil
}

func typeTag(v any) string {
	switch v.(type) {
	case float32, float64:
		return "System.Double"
	case int, int32, int64:
		return "System.Int32"
	case bool:
		return "System.Boolean"
	case string:
		return "System.String"
	}
	return "System.Object"
}
