package plan

import (
	"github.com/matzehuels/factoryflow/pkg/calc"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

// Line is one required item in a plan.
type Line struct {
	Depth     int     `json:"depth" csv:"depth"`
	Item      string  `json:"item" csv:"item"`
	Rate      float64 `json:"rate" csv:"rate"`
	Factory   string  `json:"factory,omitempty" csv:"factory"`
	Factories float64 `json:"factories,omitempty" csv:"factories"`
}

// Stock is an amount of an item by name.
type Stock struct {
	Item   string  `json:"item"`
	Amount float64 `json:"amount"`
}

// TreeLine is one node of the flattened expansion tree.
type TreeLine struct {
	Depth     int     `json:"depth"`
	Item      string  `json:"item"`
	Rate      float64 `json:"rate"`
	Factory   string  `json:"factory,omitempty"`
	Factories float64 `json:"factories,omitempty"`
}

// Plan is a self-contained production plan. It refers to items by name so it
// stays meaningful without the database that produced it.
type Plan struct {
	Lines     []Line         `json:"lines"`
	Factories []FactoryCount `json:"factories"`
	Surplus   []Stock        `json:"surplus,omitempty"`
	Tree      []TreeLine     `json:"tree,omitempty"`
}

// Build projects st into a Plan. Tree lines are included when st recorded a
// tree; nodes with a zero amount are skipped together with their subtrees.
func Build(db *recipe.Database, st *calc.State) *Plan {
	reg := db.Items()
	p := &Plan{Factories: Factories(db, st)}

	for _, lvl := range RequiredGroups(st) {
		for _, a := range lvl.Items {
			ln := Line{Depth: lvl.Depth, Item: reg.Name(a.Item), Rate: a.Amount}
			if n, factory, ok := FactoriesFor(db, a.Item, a.Amount); ok {
				ln.Factory, ln.Factories = factory, n
			}
			p.Lines = append(p.Lines, ln)
		}
	}

	for _, a := range SurplusItems(st) {
		p.Surplus = append(p.Surplus, Stock{Item: reg.Name(a.Item), Amount: a.Amount})
	}

	if st.Tree != nil {
		st.Tree.Walk(func(_ int, n calc.Node) bool {
			if n.Amount.Amount == 0 {
				return false
			}
			tl := TreeLine{Depth: n.Depth, Item: reg.Name(n.Amount.Item), Rate: n.Amount.Amount}
			if count, factory, ok := FactoriesFor(db, n.Amount.Item, n.Amount.Amount); ok {
				tl.Factory, tl.Factories = factory, count
			}
			p.Tree = append(p.Tree, tl)
			return true
		})
	}
	return p
}

// Levels returns the plan's lines grouped by depth, in order.
func (p *Plan) Levels() [][]Line {
	var out [][]Line
	for i, ln := range p.Lines {
		if i == 0 || ln.Depth != p.Lines[i-1].Depth {
			out = append(out, nil)
		}
		out[len(out)-1] = append(out[len(out)-1], ln)
	}
	return out
}

// Items returns the number of distinct required items.
func (p *Plan) Items() int { return len(p.Lines) }
