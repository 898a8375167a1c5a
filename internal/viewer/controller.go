package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"rhinoview/internal/compute"
	"rhinoview/internal/logging"
)

// ErrSuperseded reports a request cancelled or overtaken by a newer one under
// the cancel policy.
var ErrSuperseded = errors.New("viewer: request superseded")

// OverlapPolicy decides what happens when a request is issued while another
// is in flight.
type OverlapPolicy int

const (
	// PolicyCancelReplace cancels the in-flight request.
	PolicyCancelReplace OverlapPolicy = iota
	// PolicyQueue runs requests one after another in issue order.
	PolicyQueue
)

func (p OverlapPolicy) String() string {
	switch p {
	case PolicyCancelReplace:
		return "cancel"
	case PolicyQueue:
		return "queue"
	}
	return "unknown"
}

func ParseOverlapPolicy(s string) (OverlapPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cancel", "replace", "cancel-replace":
		return PolicyCancelReplace, nil
	case "queue", "serialize":
		return PolicyQueue, nil
	}
	return PolicyCancelReplace, fmt.Errorf("viewer: unknown overlap policy %q", s)
}

// Evaluator runs one evaluation request. *compute.Client implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, req *compute.EvaluationRequest) (*compute.Response, error)
}

// Result is a completed evaluation tagged with its request generation.
type Result struct {
	Generation uint64
	Response   *compute.Response
}

// Controller issues evaluation requests from parameter values. Evaluate is
// safe to call from several goroutines.
type Controller struct {
	eval      Evaluator
	collector *compute.Collector
	policy    OverlapPolicy
	logger    *slog.Logger

	mu     sync.Mutex
	def    *compute.Definition
	gen    uint64
	cancel context.CancelFunc
	tail   chan struct{}
}

type ControllerOption func(*Controller)

func WithPolicy(p OverlapPolicy) ControllerOption {
	return func(c *Controller) {
		c.policy = p
	}
}

func WithControllerLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = l
	}
}

func NewController(eval Evaluator, collector *compute.Collector, def *compute.Definition, opts ...ControllerOption) *Controller {
	c := &Controller{
		eval:      eval,
		collector: collector,
		def:       def,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Policy() OverlapPolicy { return c.policy }

// SetDefinition switches the definition used by later requests.
func (c *Controller) SetDefinition(def *compute.Definition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.def = def
}

func (c *Controller) Definition() *compute.Definition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.def
}

// Generation is the number of requests issued so far.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Evaluate builds a request from values and runs it under the overlap
// policy.
func (c *Controller) Evaluate(ctx context.Context, values map[string]float64) (Result, error) {
	c.mu.Lock()
	req, err := c.collector.BuildRequest(c.def, values)
	if err != nil {
		c.mu.Unlock()
		return Result{}, err
	}
	c.gen++
	gen := c.gen
	c.logger.Debug("evaluate", "generation", gen, "policy", c.policy.String())

	if c.policy == PolicyQueue {
		prev := c.tail
		done := make(chan struct{})
		c.tail = done
		c.mu.Unlock()
		return c.queued(ctx, gen, req, prev, done)
	}

	if c.cancel != nil {
		c.cancel()
	}
	rctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	resp, err := c.eval.Evaluate(rctx, req)

	c.mu.Lock()
	latest := c.gen == gen
	if latest {
		c.cancel = nil
	}
	c.mu.Unlock()

	if !latest && ctx.Err() == nil {
		c.logger.Debug("evaluation superseded", "generation", gen)
		return Result{Generation: gen}, ErrSuperseded
	}
	if err != nil {
		return Result{Generation: gen}, err
	}
	return Result{Generation: gen, Response: resp}, nil
}

func (c *Controller) queued(ctx context.Context, gen uint64, req *compute.EvaluationRequest, prev <-chan struct{}, done chan struct{}) (Result, error) {
	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			// keep the chain intact for whoever queued behind us
			go func() {
				<-prev
				close(done)
			}()
			return Result{Generation: gen}, ctx.Err()
		}
	}
	defer close(done)

	resp, err := c.eval.Evaluate(ctx, req)
	if err != nil {
		return Result{Generation: gen}, err
	}
	return Result{Generation: gen, Response: resp}, nil
}
