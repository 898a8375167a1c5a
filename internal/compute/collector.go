package compute

import (
	"errors"
	"fmt"
)

// ErrMissingParameter is returned when a configured parameter has no value.
var ErrMissingParameter = errors.New("compute: missing parameter value")

// Collector packages parameter values as single-branch data trees. The order
// of names must match the order the definition declares its inputs; a wrong
// order binds values to the wrong input without any error from the server.
type Collector struct {
	names []string
}

func NewCollector(names ...string) *Collector {
	c := &Collector{names: make([]string, len(names))}
	copy(c.names, names)
	return c
}

// Names returns the configured parameter names in request order.
func (c *Collector) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Trees wraps each configured value at branch {0}. Values are sent as-is.
func (c *Collector) Trees(values map[string]float64) ([]*DataTree, error) {
	trees := make([]*DataTree, 0, len(c.names))
	for _, name := range c.names {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
		}
		tree := NewDataTree(name)
		if err := tree.Append([]int{0}, v); err != nil {
			return nil, err
		}
		trees = append(trees, tree)
	}
	return trees, nil
}

// BuildRequest builds the evaluation request for def.
func (c *Collector) BuildRequest(def *Definition, values map[string]float64) (*EvaluationRequest, error) {
	trees, err := c.Trees(values)
	if err != nil {
		return nil, err
	}
	req := &EvaluationRequest{Values: trees}
	if def != nil {
		def.apply(req)
	}
	return req, nil
}
