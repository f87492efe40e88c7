package engine

import (
	"fmt"
	"sort"
	"strings"
)

// DOT возвращает граф в формате Graphviz для диагностики.
//
// Чисто read-only снимок топологии: вызывается опционально
// (например, при GRAPH_DOT=1) и не влияет на обработку jobs.
func (g *Graph) DOT() string {
	var sb strings.Builder
	sb.WriteString("digraph pipeline {\n")
	sb.WriteString("  rankdir=LR;\n")

	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		node := g.nodes[name]
		shape := "box"
		if node.Kind == KindLocal {
			shape = "diamond"
		}
		fmt.Fprintf(&sb, "  %q [shape=%s];\n", name, shape)
	}
	sb.WriteString("  \"__end__\" [shape=doublecircle];\n")

	for _, from := range names {
		if to, ok := g.edges[from]; ok {
			fmt.Fprintf(&sb, "  %q -> %q;\n", from, to)
		}
		for _, to := range g.targets[from] {
			fmt.Fprintf(&sb, "  %q -> %q [style=dashed];\n", from, to)
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}
