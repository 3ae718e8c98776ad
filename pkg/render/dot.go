package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/factoryflow/pkg/item"
	"github.com/matzehuels/factoryflow/pkg/plan"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds rates and factory counts to node labels.
	Detailed bool
}

func header(buf *bytes.Buffer) {
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=18, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")
}

// ToDOT converts a plan's expansion tree to Graphviz DOT. Each tree line
// becomes its own node, so an item demanded in several places appears once
// per demand. Edges point from a product to its ingredients.
//
// Plans built without a tree produce one node per required item and no
// edges. Raw materials are drawn with a grey fill.
func ToDOT(p *plan.Plan, opts Options) string {
	var buf bytes.Buffer
	header(&buf)

	if len(p.Tree) == 0 {
		for i, ln := range p.Lines {
			writeNode(&buf, fmt.Sprintf("n%d", i), ln.Item, ln.Rate, ln.Factory, ln.Factories, opts)
		}
		buf.WriteString("}\n")
		return buf.String()
	}

	var edges []string
	var stack []int // node index per depth
	for i, tl := range p.Tree {
		id := fmt.Sprintf("n%d", i)
		writeNode(&buf, id, tl.Item, tl.Rate, tl.Factory, tl.Factories, opts)

		stack = stack[:min(tl.Depth, len(stack))]
		if tl.Depth > 0 && len(stack) > 0 {
			edges = append(edges, fmt.Sprintf("  n%d -> %s;\n", stack[len(stack)-1], id))
		}
		stack = append(stack, i)
	}

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, id, name string, rate float64, factory string, count float64, opts Options) {
	label := name
	if opts.Detailed {
		label = fmt.Sprintf("%s\n%g/s", name, rate)
		if factory != "" {
			label += fmt.Sprintf("\n%.3g %s", count, factory)
		}
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if factory == "" {
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	fmt.Fprintf(buf, "  %s [%s];\n", id, strings.Join(attrs, ", "))
}

// RecipeDOT draws the item graph of the selected recipes: one node per item,
// an edge from each product to each of its ingredients labeled with the
// factory type. Items without a recipe are raw materials.
func RecipeDOT(db *recipe.Database) string {
	var buf bytes.Buffer
	header(&buf)

	reg := db.Items()
	for id := range reg.Len() {
		attrs := []string{fmt.Sprintf("label=%q", reg.Name(item.ID(id)))}
		if _, ok := db.Recipe(item.ID(id)); !ok {
			attrs = append(attrs, "fillcolor=lightgrey")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", reg.Name(item.ID(id)), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for id := range reg.Len() {
		r, ok := db.Recipe(item.ID(id))
		if !ok {
			continue
		}
		for _, ing := range r.Ingredients {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", reg.Name(item.ID(id)), reg.Name(ing.Item), r.Factory)
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}
