package graph2

import (
	"fmt"
	"strings"
)

// ExportGraphviz renders the node graph as a GraphViz digraph for debugging:
// pass nodes are orange rectangles, resource versions are sky blue, culled
// nodes are dimmed to their dark variants, and write edges are distinguished
// from read edges by color. The cull pass is run first so the export reflects
// what Compile would schedule. Paste the output into any dot viewer.
func (g *Graph) ExportGraphviz() string {
	g.cullNodes()

	var out strings.Builder
	out.WriteString("digraph \"graph\" {\n")
	out.WriteString("rankdir = LR\n")
	out.WriteString("bgcolor = black\n")
	out.WriteString("graph [fontname = \"helvetica\"];\n")
	out.WriteString("edge [fontname = \"helvetica\", fontcolor=white, fontsize=8];\n")
	out.WriteString("node [shape=rectangle, fontname=\"helvetica\", fontsize=10];\n\n")

	for i, n := range g.nodes {
		var fill string
		switch {
		case n.kind == nodeKindPass && n.culled():
			fill = "darkorange4"
		case n.kind == nodeKindPass:
			fill = "darkorange"
		case n.culled():
			fill = "skyblue4"
		default:
			fill = "skyblue"
		}
		label := n.name()
		if n.kind == nodeKindResource && n.resource.generation > 0 {
			label = fmt.Sprintf("%s (v%d)", label, n.resource.generation)
		}
		fmt.Fprintf(&out, "\"N%d\" [label=%q  style=filled, fillcolor=%s] \n", i, label, fill)
	}

	out.WriteString("\n")

	for _, e := range g.edges {
		color := "darkolivegreen"
		if e.write {
			color = "firebrick"
		}
		if g.nodes[e.from].culled() && g.nodes[e.to].culled() {
			fmt.Fprintf(&out, "N%d -> N%d [color=%s4 style=dashed];\n", e.from, e.to, color)
		} else {
			fmt.Fprintf(&out, "N%d -> N%d [color=%s2];\n", e.from, e.to, color)
		}
	}

	out.WriteString("}")
	return out.String()
}
