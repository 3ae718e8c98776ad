package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/factoryflow/pkg/item"
	"github.com/matzehuels/factoryflow/pkg/plan"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)

	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleCell   = lipgloss.NewStyle().PaddingRight(1)
	styleBorder = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess  = "✓"
	iconError    = "✗"
	iconWarning  = "!"
	iconInfo     = "›"
	iconArrow    = "→"
	iconSelected = "*"
	iconCached   = "cached"
	iconFresh    = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

// printError prints an error message.
func printError(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+msg)
}

// printWarning prints a warning message.
func printWarning(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printDetail prints a detail line (indented).
func printDetail(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, "  "+StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints plan statistics on a single line.
func printStats(w io.Writer, items, factories int, cached bool) {
	parts := []string{
		fmt.Sprintf("%d items", items),
		fmt.Sprintf("%d factory types", factories),
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Fprintln(w, line)
}

// printNextStep prints a suggested next command.
func printNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Numbers
// =============================================================================

// formatRate prints rates and counts with up to four significant digits.
func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// =============================================================================
// Plan Display
// =============================================================================

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.PaddingRight(1)
			}
			return styleCell
		})
}

// renderPlan formats a plan as tables: required items by tier, factory
// totals, leftover products and, when tree is set and recorded, the tree.
func renderPlan(p *plan.Plan, tree bool) string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Required products"))
	b.WriteString("\n")
	if len(p.Lines) == 0 {
		b.WriteString(StyleDim.Render("  nothing to produce"))
		b.WriteString("\n")
		return b.String()
	}

	req := newTable("Tier", "Item", "Rate/s", "Factories", "Factory")
	for _, level := range p.Levels() {
		for i, ln := range level {
			tier := ""
			if i == 0 {
				tier = strconv.Itoa(ln.Depth)
			}
			count, factory := "", StyleDim.Render("raw")
			if ln.Factory != "" {
				count, factory = formatRate(ln.Factories), ln.Factory
			}
			req.Row(tier, ln.Item, formatRate(ln.Rate), count, factory)
		}
	}
	b.WriteString(req.Render())
	b.WriteString("\n\n")

	b.WriteString(StyleTitle.Render("Needed factories"))
	b.WriteString("\n")
	fac := newTable("Factory", "Count")
	for _, f := range p.Factories {
		fac.Row(f.Factory, formatRate(f.Count))
	}
	b.WriteString(fac.Render())
	b.WriteString("\n")

	if len(p.Surplus) > 0 {
		b.WriteString("\n")
		b.WriteString(StyleTitle.Render("Additional products"))
		b.WriteString("\n")
		sur := newTable("Item", "Rate/s")
		for _, s := range p.Surplus {
			sur.Row(s.Item, formatRate(s.Amount))
		}
		b.WriteString(sur.Render())
		b.WriteString("\n")
	}

	if tree && len(p.Tree) > 0 {
		b.WriteString("\n")
		b.WriteString(StyleTitle.Render("Tree view"))
		b.WriteString("\n")
		for _, tl := range p.Tree {
			b.WriteString(strings.Repeat("  ", tl.Depth+1))
			b.WriteString(StyleNumber.Render(formatRate(tl.Rate) + "/s"))
			b.WriteString(" ")
			b.WriteString(StyleValue.Render(tl.Item))
			if tl.Factory != "" {
				b.WriteString(StyleDim.Render(fmt.Sprintf("  %s %s", formatRate(tl.Factories), tl.Factory)))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// =============================================================================
// Database Display
// =============================================================================

// writeItems lists every item by name, marking raw materials.
func writeItems(w io.Writer, db *recipe.Database) {
	reg := db.Items()
	for _, id := range reg.Sorted() {
		line := reg.Name(id)
		if len(db.Candidates(id)) == 0 {
			line += " " + StyleDim.Render("(raw)")
		}
		fmt.Fprintln(w, line)
	}
}

// writeRecipes lists every recipe in load order.
func writeRecipes(w io.Writer, db *recipe.Database) {
	reg := db.Items()
	for _, r := range db.Recipes() {
		fmt.Fprintln(w, recipe.FormatRecipe(reg, r))
	}
}

// writeCandidates lists the candidate recipes for id with their indices,
// marking the selected one.
func writeCandidates(w io.Writer, db *recipe.Database, id item.ID) {
	reg := db.Items()
	sel := db.Selected(id)
	for i, r := range db.Candidates(id) {
		marker := " "
		line := fmt.Sprintf("%d) %s", i, recipe.FormatRecipe(reg, r))
		if i == sel {
			marker = StyleSuccess.Render(iconSelected)
			line = StyleHighlight.Render(line)
		}
		fmt.Fprintf(w, "  %s %s\n", marker, line)
	}
}

// writeOptional lists every item with alternative recipes and its choices.
func writeOptional(w io.Writer, db *recipe.Database) {
	opt := db.Optional()
	if len(opt) == 0 {
		printInfo(w, "No item has alternative recipes")
		return
	}
	reg := db.Items()
	for _, id := range opt {
		fmt.Fprintln(w, StyleTitle.Render(reg.Name(id)))
		writeCandidates(w, db, id)
	}
}
