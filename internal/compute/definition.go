package compute

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Definition is a Grasshopper definition, either inlined (Data) or referenced
// by a pointer the compute server resolves itself.
type Definition struct {
	Name    string
	Data    []byte
	Pointer string
}

// PointerDefinition references a definition by name or URL.
func PointerDefinition(pointer string) *Definition {
	return &Definition{Name: pointer, Pointer: pointer}
}

func (d *Definition) apply(req *EvaluationRequest) {
	if len(d.Data) > 0 {
		req.Algo = base64.StdEncoding.EncodeToString(d.Data)
		return
	}
	req.Pointer = d.Pointer
}

// LoadDefinition reads a definition from a file path or fetches it with a
// plain GET when source is an http(s) URL. A nil client uses
// http.DefaultClient.
func LoadDefinition(ctx context.Context, client *http.Client, source string) (*Definition, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if client == nil {
			client = http.DefaultClient
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("compute: definition request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("compute: fetch definition %s: %w", source, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("compute: fetch definition %s: %s", source, resp.Status)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("compute: read definition %s: %w", source, err)
		}
		name := source[strings.LastIndex(source, "/")+1:]
		return &Definition{Name: name, Data: data}, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("compute: read definition: %w", err)
	}
	return &Definition{Name: filepath.Base(source), Data: data}, nil
}
