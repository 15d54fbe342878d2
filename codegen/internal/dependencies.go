package codegen

import (
	"errors"

	"go.uber.org/zap"
)

// State is the resolution state of a schema while dependencies are resolved.
type State int

const (
	StateUnspecified State = iota
	// StatePending marks a schema discovered as a dependency and queued for
	// promotion.
	StatePending
	StateGenerate
	StateSkip
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateGenerate:
		return "generate"
	case StateSkip:
		return "skip"
	default:
		return "unspecified"
	}
}

// Resolution is the dependency-closed outcome of filtering: which schemas
// are generated and which fields each of them keeps.
type Resolution struct {
	graph  *Graph
	states map[string]State
	fields map[string][]string
}

func newResolution(g *Graph) *Resolution {
	return &Resolution{
		graph:  g,
		states: make(map[string]State, g.Len()),
		fields: make(map[string][]string),
	}
}

// State returns the state of name.
func (r *Resolution) State(name string) State {
	return r.states[name]
}

// Fields returns the retained fields of a generated object schema in
// document order.
func (r *Resolution) Fields(name string) []string {
	return r.fields[name]
}

// Generated returns the generate-set in declaration order.
func (r *Resolution) Generated() []string {
	var out []string
	for _, name := range r.graph.Names() {
		if r.states[name] == StateGenerate {
			out = append(out, name)
		}
	}
	return out
}

func (r *Resolution) generate(name string, d Decision) {
	r.states[name] = StateGenerate
	r.fields[name] = d.Fields
}

// dependencies returns the distinct schemas referenced by the retained
// positions of name, in first-seen order.
func (r *Resolution) dependencies(name string) []string {
	s, ok := r.graph.Resolve(name)
	if !ok {
		return nil
	}
	refs := s.references(r.fields[name], nil)
	seen := make(map[string]bool, len(refs))
	out := refs[:0]
	for _, ref := range refs {
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	return out
}

// ResolveDependencies classifies every schema with f and closes the
// generate-set over references. Schemas the filter left unspecified are
// promoted when auto-include is enabled; explicitly skipped schemas never
// are. Every problem found is reported, joined into one error.
func ResolveDependencies(g *Graph, f *Filter, log *zap.Logger) (*Resolution, error) {
	if log == nil {
		log = zap.NewNop()
	}
	r := newResolution(g)

	var queue []string
	for _, name := range g.Names() {
		switch d := f.Classify(name); d.Kind {
		case DecisionGenerate:
			r.generate(name, d)
			queue = append(queue, name)
		case DecisionSkip:
			r.states[name] = StateSkip
		}
	}

	auto := f.Spec().AutoIncludeDependencies
	var errs []error
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if r.states[name] == StatePending {
			r.generate(name, f.Promote(name))
			log.Debug("auto-included dependency", zap.String("schema", name))
		}

		for _, target := range r.dependencies(name) {
			if _, ok := g.Resolve(target); !ok {
				errs = append(errs, &DanglingReferenceError{From: name, Target: target})
				continue
			}
			switch r.states[target] {
			case StateGenerate, StatePending:
			case StateSkip:
				errs = append(errs, &UnsatisfiedDependencyError{From: name, Missing: target})
			default:
				if !auto {
					errs = append(errs, &UnsatisfiedDependencyError{From: name, Missing: target})
					continue
				}
				r.states[target] = StatePending
				queue = append(queue, target)
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}
