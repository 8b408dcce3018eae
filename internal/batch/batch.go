// Package batch decodes sample batches from JSON or YAML files and fills in
// metrics the transcription pipeline did not precompute.
package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/dysgair/capteval/internal/model"
)

// ErrInvalidInput reports a batch that is not an ordered list of sample
// records.
var ErrInvalidInput = errors.New("invalid input")

// Format is a batch encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file extension; anything other than
// .yaml or .yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Batch is a named, ordered collection of samples.
type Batch struct {
	Name    string         `json:"name" yaml:"name"`
	Samples []model.Sample `json:"samples" yaml:"samples"`
}

// Load reads a batch file. When the file does not name the batch, the file
// name without extension is used.
func Load(path string) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to open batch: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
	}()
	b, err := Decode(f, FormatFor(path))
	if err != nil {
		return Batch{}, fmt.Errorf("%s: %w", path, err)
	}
	if b.Name == "" {
		b.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return b, nil
}

// LoadAll reads several batch files concurrently, preserving order.
func LoadAll(ctx context.Context, paths []string) ([]Batch, error) {
	out := make([]Batch, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := Load(path)
			if err != nil {
				return err
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode reads a batch: either a top-level list of sample objects or an
// object with an optional name and a samples list.
func Decode(r io.Reader, format Format) (Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Batch{}, fmt.Errorf("failed to read batch: %w", err)
	}
	if format == FormatYAML {
		return decodeYAML(data)
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) (Batch, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Batch{}, fmt.Errorf("%w: empty document", ErrInvalidInput)
	}
	var b Batch
	raw := json.RawMessage(data)
	if data[0] == '{' {
		var doc struct {
			Name    string          `json:"name"`
			Samples json.RawMessage `json:"samples"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return Batch{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if doc.Samples == nil {
			return Batch{}, fmt.Errorf("%w: object has no samples list", ErrInvalidInput)
		}
		b.Name = doc.Name
		raw = bytes.TrimSpace(doc.Samples)
	}
	var items []json.RawMessage
	if len(raw) == 0 || raw[0] != '[' {
		return Batch{}, fmt.Errorf("%w: samples must be a list", ErrInvalidInput)
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return Batch{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	b.Samples = make([]model.Sample, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			return Batch{}, fmt.Errorf("%w: sample %d is not an object", ErrInvalidInput, i)
		}
		var s model.Sample
		if err := json.Unmarshal(item, &s); err != nil {
			return Batch{}, fmt.Errorf("%w: sample %d: %v", ErrInvalidInput, i, err)
		}
		b.Samples = append(b.Samples, s)
	}
	return b, nil
}

func decodeYAML(data []byte) (Batch, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Batch{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return Batch{}, fmt.Errorf("%w: empty document", ErrInvalidInput)
	}
	var b Batch
	list := doc.Content[0]
	if list.Kind == yaml.MappingNode {
		root := list
		list = nil
		for i := 0; i+1 < len(root.Content); i += 2 {
			switch root.Content[i].Value {
			case "name":
				b.Name = root.Content[i+1].Value
			case "samples":
				list = root.Content[i+1]
			}
		}
		if list == nil {
			return Batch{}, fmt.Errorf("%w: object has no samples list", ErrInvalidInput)
		}
	}
	if list.Kind != yaml.SequenceNode {
		return Batch{}, fmt.Errorf("%w: samples must be a list", ErrInvalidInput)
	}
	b.Samples = make([]model.Sample, 0, len(list.Content))
	for i, item := range list.Content {
		if item.Kind != yaml.MappingNode {
			return Batch{}, fmt.Errorf("%w: sample %d is not an object", ErrInvalidInput, i)
		}
		var s model.Sample
		if err := item.Decode(&s); err != nil {
			return Batch{}, fmt.Errorf("%w: sample %d: %v", ErrInvalidInput, i, err)
		}
		b.Samples = append(b.Samples, s)
	}
	return b, nil
}
