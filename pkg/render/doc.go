// Package render draws production plans and recipe graphs with Graphviz.
//
// # Usage
//
// Convert a plan's expansion tree to DOT, then render to SVG:
//
//	dot := render.ToDOT(p, render.Options{Detailed: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// [RecipeDOT] draws the item graph of the currently selected recipes instead,
// which is useful for spotting cycles and long chains before planning.
//
// For PDF or PNG output, convert the SVG:
//
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// # Dependencies
//
// SVG rendering runs in-process through [github.com/goccy/go-graphviz]. PDF
// and PNG conversion requires librsvg (rsvg-convert).
package render
