package codegen

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/speakeasy-api/openapi-overlay/pkg/overlay"
	"gopkg.in/yaml.v3"
)

// DocumentOptions controls pre-processing of the input document before the
// schema graph is built.
type DocumentOptions struct {
	// OverlayPath is an OpenAPI Overlay applied to the document first.
	OverlayPath string `yaml:"overlay,omitempty"`
	// OverlayStrict fails when an overlay action matches nothing.
	OverlayStrict bool `yaml:"overlay-strict,omitempty"`
	// Validate runs full OpenAPI validation. Documents trimmed down to
	// components only do not pass it, so it is off by default.
	Validate bool `yaml:"validate,omitempty"`
}

// Document is a parsed input document together with its schema graph.
type Document struct {
	Graph *Graph
	node  *yaml.Node
}

// LoadDocument parses JSON or YAML document bytes and builds the schema graph.
func LoadDocument(ctx context.Context, data []byte, opts DocumentOptions) (*Document, error) {
	node, err := decodeNode(data)
	if err != nil {
		return nil, &MalformedDocumentError{Err: err}
	}

	if opts.OverlayPath != "" {
		if err := applyOverlay(node, opts.OverlayPath, opts.OverlayStrict); err != nil {
			return nil, &MalformedDocumentError{Path: "overlay", Err: err}
		}
	}

	if opts.Validate {
		if err := validateOpenAPI(ctx, node); err != nil {
			return nil, &MalformedDocumentError{Err: fmt.Errorf("validating OpenAPI document: %w", err)}
		}
	}

	g, err := BuildGraph(node)
	if err != nil {
		return nil, err
	}
	return &Document{Graph: g, node: node}, nil
}

// LoadDocumentFile reads and parses the document at path.
func LoadDocumentFile(ctx context.Context, path string, opts DocumentOptions) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", path, err)
	}
	doc, err := LoadDocument(ctx, data, opts)
	if err != nil {
		return nil, fmt.Errorf("loading document %s: %w", path, err)
	}
	return doc, nil
}

// Encode renders the (possibly overlaid) document back to YAML.
func (d *Document) Encode() ([]byte, error) {
	return yaml.Marshal(d.node)
}

func applyOverlay(node *yaml.Node, path string, strict bool) error {
	o, err := overlay.Parse(path)
	if err != nil {
		return fmt.Errorf("parsing overlay %s: %w", path, err)
	}
	if err := o.Validate(); err != nil {
		return fmt.Errorf("invalid overlay %s: %w", path, err)
	}

	if strict {
		err, unmatched := o.ApplyToStrict(node)
		if err != nil {
			if len(unmatched) > 0 {
				return fmt.Errorf("applying overlay %s: %w (%s)", path, err, strings.Join(unmatched, "; "))
			}
			return fmt.Errorf("applying overlay %s: %w", path, err)
		}
		return nil
	}
	if err := o.ApplyTo(node); err != nil {
		return fmt.Errorf("applying overlay %s: %w", path, err)
	}
	return nil
}

func validateOpenAPI(ctx context.Context, node *yaml.Node) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return err
	}
	return spec.Validate(ctx)
}
