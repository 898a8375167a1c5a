package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rhinoview/internal/compute"
	"rhinoview/internal/geom"
	"rhinoview/internal/logging"
	"rhinoview/internal/scene"
)

var (
	// ErrNoGeometryDecoded reports a response without a single decodable
	// item. The scene and camera are left as they were.
	ErrNoGeometryDecoded = errors.New("viewer: no geometry decoded")
	// ErrStale reports a pass overtaken by a newer one.
	ErrStale = errors.New("viewer: stale response")
)

type Options struct {
	// Wireframe selects the wireframe variant of the mesh material.
	Wireframe bool
	// FitOffset is the camera margin; zero means scene.DefaultFitOffset.
	FitOffset float64
	Decoder   *geom.Decoder
	Importer  *scene.Importer
	Logger    *slog.Logger
}

// Materializer applies evaluation responses to a State. It is not safe for
// concurrent use; call it from the goroutine that owns the State.
type Materializer struct {
	state  *State
	opts   Options
	latest uint64
}

func NewMaterializer(state *State, opts Options) *Materializer {
	if opts.Decoder == nil {
		opts.Decoder = geom.NewDecoder(nil)
	}
	if opts.Importer == nil {
		opts.Importer = scene.NewImporter()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.FitOffset <= 0 {
		opts.FitOffset = scene.DefaultFitOffset
	}
	return &Materializer{state: state, opts: opts}
}

// Latest is the newest generation passed to Begin.
func (m *Materializer) Latest() uint64 { return m.latest }

// SetWireframe switches the material applied by later commits.
func (m *Materializer) SetWireframe(on bool) { m.opts.Wireframe = on }

func (m *Materializer) Wireframe() bool { return m.opts.Wireframe }

func (m *Materializer) FitOffset() float64 { return m.opts.FitOffset }

func (m *Materializer) Decoder() *geom.Decoder { return m.opts.Decoder }

// Pass is one materialization between decoding and commit.
type Pass struct {
	Generation uint64
	Document   *scene.Document
	future     *scene.Future
}

// Done is closed once the import finished.
func (p *Pass) Done() <-chan struct{} { return p.future.Done() }

// Wait blocks for the imported node graph.
func (p *Pass) Wait(ctx context.Context) (*scene.Node, error) {
	return p.future.Wait(ctx)
}

// Begin releases the live document, decodes resp into a new one and starts
// importing it. Generations older than the newest seen are rejected with
// ErrStale before anything is touched.
func (m *Materializer) Begin(ctx context.Context, gen uint64, resp *compute.Response) (*Pass, error) {
	if gen < m.latest {
		return nil, ErrStale
	}
	m.latest = gen

	if m.state.doc != nil {
		m.state.doc.Release()
	}
	doc := scene.NewDocument()
	m.state.doc = doc

	if resp != nil {
		for _, out := range resp.Values {
			if out == nil {
				continue
			}
			for _, path := range out.InnerTree.Paths() {
				for _, item := range out.InnerTree.Branch(path) {
					obj, ok := m.opts.Decoder.TryDecode(item.Type, item.Data)
					if !ok {
						continue
					}
					if err := doc.Add(obj); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	if doc.Len() == 0 {
		m.opts.Logger.Warn("no geometry decoded", "generation", gen, "items", resp.ItemCount())
		return nil, ErrNoGeometryDecoded
	}

	data, err := doc.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("viewer: serialize document: %w", err)
	}
	m.opts.Logger.Debug("document ready", "generation", gen, "objects", doc.Len(), "bytes", len(data))
	return &Pass{
		Generation: gen,
		Document:   doc,
		future:     m.opts.Importer.Parse(ctx, data),
	}, nil
}

// Commit swaps the imported graph into the scene and reframes the camera.
// Every mesh gets the viewer material regardless of what the importer set.
func (m *Materializer) Commit(p *Pass, root *scene.Node) error {
	if p.Generation != m.latest {
		return ErrStale
	}
	root.Traverse(func(n *scene.Node) {
		if n.IsMesh() {
			n.Material = scene.NormalMaterial(m.opts.Wireframe)
		}
	})
	removed := m.state.Scene.RemoveNonLights()
	m.state.Scene.Add(root)
	fitted := m.state.Refit(m.opts.FitOffset)
	m.opts.Logger.Info("scene updated",
		"generation", p.Generation,
		"objects", p.Document.Len(),
		"removed", removed,
		"fitted", fitted,
	)
	return nil
}

// Materialize runs a whole pass synchronously as the next generation.
func (m *Materializer) Materialize(ctx context.Context, resp *compute.Response) error {
	return m.MaterializeGeneration(ctx, m.latest+1, resp)
}

// MaterializeGeneration runs a whole pass synchronously.
func (m *Materializer) MaterializeGeneration(ctx context.Context, gen uint64, resp *compute.Response) error {
	p, err := m.Begin(ctx, gen, resp)
	if err != nil {
		return err
	}
	root, err := p.Wait(ctx)
	if err != nil {
		return fmt.Errorf("viewer: import document: %w", err)
	}
	return m.Commit(p, root)
}

// ItemReport describes what one response item decoded to.
type ItemReport struct {
	Param string
	Path  string
	Index int
	Type  string
	// Kind is the decoded object kind, empty when the item is not geometry.
	Kind string
}

// Inspect decodes resp without touching any state, for listing outputs.
func Inspect(dec *geom.Decoder, resp *compute.Response) []ItemReport {
	if dec == nil {
		dec = geom.NewDecoder(nil)
	}
	var out []ItemReport
	if resp == nil {
		return out
	}
	for _, v := range resp.Values {
		if v == nil {
			continue
		}
		for _, path := range v.InnerTree.Paths() {
			for i, item := range v.InnerTree.Branch(path) {
				r := ItemReport{Param: v.ParamName, Path: path, Index: i, Type: item.Type}
				if obj, ok := dec.TryDecode(item.Type, item.Data); ok {
					r.Kind = obj.Kind().String()
				}
				out = append(out, r)
			}
		}
	}
	return out
}
