package scene

import (
	"context"
	"fmt"

	"rhinoview/internal/geom"
)

// Future is the pending result of an asynchronous import.
type Future struct {
	done chan struct{}
	root *Node
	err  error
}

// Done is closed once the result is available.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the import finishes or ctx is done.
func (f *Future) Wait(ctx context.Context) (*Node, error) {
	select {
	case <-f.done:
		return f.root, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Importer turns document archives into node graphs.
type Importer struct{}

func NewImporter() *Importer { return &Importer{} }

// Parse decodes data in the background. The returned graph is a group with
// one child per archived object; meshes carry an imported material.
func (imp *Importer) Parse(ctx context.Context, data []byte) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.root, f.err = imp.build(data)
	}()
	return f
}

func (imp *Importer) build(data []byte) (*Node, error) {
	doc, err := ReadDocument(data)
	if err != nil {
		return nil, err
	}
	root := NewGroup("document " + doc.ID())
	for i, obj := range doc.Objects() {
		name := fmt.Sprintf("%s-%d", obj.Kind(), i)
		switch o := obj.(type) {
		case *geom.Mesh:
			root.Add(NewMeshNode(name, o, importedMaterial("imported")))
		case *geom.CommonObject:
			if o.Connected {
				root.Add(NewLineNode(o.ObjectType, o.Points, importedMaterial("imported")))
			} else {
				root.Add(NewPointsNode(o.ObjectType, o.Points, importedMaterial("imported")))
			}
		}
	}
	return root, nil
}
