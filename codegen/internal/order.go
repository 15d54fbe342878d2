package codegen

import "sort"

// OrderSchemas returns the generate-set ordered so that every schema comes
// after the schemas it references. Ties are broken by declaration order,
// which keeps output stable across runs. Any reference cycle inside the
// generate-set, a self-reference included, is a CyclicDependencyError.
func OrderSchemas(g *Graph, r *Resolution) ([]string, error) {
	names := r.Generated()

	deps := make(map[string][]string, len(names))
	for _, name := range names {
		var ds []string
		for _, dep := range r.dependencies(name) {
			if r.State(dep) == StateGenerate {
				ds = append(ds, dep)
			}
		}
		sort.SliceStable(ds, func(i, j int) bool { return g.Index(ds[i]) < g.Index(ds[j]) })
		deps[name] = ds
	}

	const (
		unvisited = iota
		visiting
		done
	)
	mark := make(map[string]int, len(names))
	depth := make(map[string]int, len(names))
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch mark[name] {
		case done:
			return nil
		case visiting:
			for i := range stack {
				if stack[i] == name {
					return &CyclicDependencyError{Cycle: rotateCycle(g, stack[i:])}
				}
			}
		}

		mark[name] = visiting
		stack = append(stack, name)
		d := 0
		for _, dep := range deps[name] {
			if err := visit(dep); err != nil {
				return err
			}
			if depth[dep]+1 > d {
				d = depth[dep] + 1
			}
		}
		stack = stack[:len(stack)-1]
		mark[name] = done
		depth[name] = d
		return nil
	}

	for _, name := range names {
		if err := visit(name); err != nil {
			return nil, err
		}
	}

	ordered := append([]string(nil), names...)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := depth[ordered[i]], depth[ordered[j]]
		if di != dj {
			return di < dj
		}
		return g.Index(ordered[i]) < g.Index(ordered[j])
	})
	return ordered, nil
}

// rotateCycle copies cycle so that it starts at its earliest declared schema.
func rotateCycle(g *Graph, cycle []string) []string {
	start := 0
	for i, name := range cycle {
		if g.Index(name) < g.Index(cycle[start]) {
			start = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[start:]...)
	out = append(out, cycle[:start]...)
	return out
}
