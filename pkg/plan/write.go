package plan

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// WriteText writes the plan in the plain sectioned format:
//
//	--- Required products ---
//	gear            :    5/s -  2.5 assembler
//
//	iron plate      :   10/s -   32 furnace
//	--- Needed factories ---
//	...
//
// Levels are separated by a blank line. The tree section is written only
// when the plan carries one.
func WriteText(w io.Writer, p *Plan) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "--- Required products ---")
	for i, lvl := range p.Levels() {
		if i > 0 {
			fmt.Fprintln(bw)
		}
		for _, ln := range lvl {
			if ln.Factory == "" {
				fmt.Fprintf(bw, "%-16s: %4g/s\n", ln.Item, ln.Rate)
				continue
			}
			fmt.Fprintf(bw, "%-16s: %4g/s - %3.3g %s\n", ln.Item, ln.Rate, ln.Factories, ln.Factory)
		}
	}

	fmt.Fprintln(bw, "--- Needed factories ---")
	for _, f := range p.Factories {
		fmt.Fprintf(bw, "%-16s: %3.3g\n", f.Factory, f.Count)
	}

	if len(p.Surplus) > 0 {
		fmt.Fprintln(bw, "--- Additional products ---")
		for _, s := range p.Surplus {
			fmt.Fprintf(bw, "%-16s: %4g/s\n", s.Item, s.Amount)
		}
	}

	if len(p.Tree) > 0 {
		fmt.Fprintln(bw, "--- Tree View ---")
		for _, tl := range p.Tree {
			indent := strings.Repeat("  ", tl.Depth)
			if tl.Factory == "" {
				fmt.Fprintf(bw, "%s%s %g/s\n", indent, tl.Item, tl.Rate)
				continue
			}
			fmt.Fprintf(bw, "%s%s %g/s - %g %s\n", indent, tl.Item, tl.Rate, tl.Factories, tl.Factory)
		}
	}
	return bw.Flush()
}

// WriteJSON encodes the plan as indented JSON.
func WriteJSON(w io.Writer, p *Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteCSV writes one CSV row per required item with a header row.
func WriteCSV(w io.Writer, p *Plan) error {
	lines := p.Lines
	if lines == nil {
		lines = []Line{}
	}
	if err := gocsv.Marshal(lines, w); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	return nil
}

// ReadJSON decodes a plan written by [WriteJSON].
func ReadJSON(r io.Reader) (*Plan, error) {
	var p Plan
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &p, nil
}
