package compute

import (
	"encoding/json"
	"fmt"
)

// EvaluationRequest is the body of POST /grasshopper.
type EvaluationRequest struct {
	Algo    string      `json:"algo,omitempty"`
	Pointer string      `json:"pointer,omitempty"`
	Values  []*DataTree `json:"values"`
}

// Response is the result of evaluating a definition. Each value is one
// output parameter.
type Response struct {
	Values   []*DataTree `json:"values"`
	Errors   []string    `json:"errors,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

// ParseResponse decodes a raw evaluation response. Null outputs are dropped.
func ParseResponse(b []byte) (*Response, error) {
	var r Response
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("compute: decode response: %w", err)
	}
	values := r.Values[:0]
	for _, out := range r.Values {
		if out != nil {
			values = append(values, out)
		}
	}
	r.Values = values
	return &r, nil
}

// ItemCount is the total number of items across all outputs and branches.
func (r *Response) ItemCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, out := range r.Values {
		if out == nil {
			continue
		}
		for _, p := range out.InnerTree.Paths() {
			n += len(out.InnerTree.Branch(p))
		}
	}
	return n
}
