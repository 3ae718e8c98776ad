package calc

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	ferrors "github.com/matzehuels/factoryflow/pkg/errors"
	"github.com/matzehuels/factoryflow/pkg/item"
	"github.com/matzehuels/factoryflow/pkg/observability"
	"github.com/matzehuels/factoryflow/pkg/recipe"
)

// DefaultMaxDepth bounds recursion when Options.MaxDepth is zero. Real recipe
// trees are a few dozen levels deep at most; hitting the ceiling almost
// always means the recipe graph contains a cycle.
const DefaultMaxDepth = 256

// ErrDepthExceeded is returned by [Engine.Expand] when the expansion recurses
// deeper than Options.MaxDepth.
var ErrDepthExceeded = errors.New("expansion depth exceeded")

// Options configures an [Engine].
type Options struct {
	// MaxDepth is the recursion ceiling. Zero means DefaultMaxDepth.
	MaxDepth int

	// Tree records an expansion tree in State.Tree during the run.
	Tree bool
}

// State is the per-run accumulator set, indexed by item ID.
type State struct {
	// Required is the gross rate demanded per item across the run.
	Required []float64

	// Surplus is unconsumed credit per item: owned stock plus co-products
	// not yet netted against demand.
	Surplus []float64

	// Depth is the deepest level at which each item was demanded.
	Depth []int

	// Tree is the expansion tree, nil unless Options.Tree is set.
	Tree *Tree
}

func newState(n int, withTree bool) *State {
	s := &State{
		Required: make([]float64, n),
		Surplus:  make([]float64, n),
		Depth:    make([]int, n),
	}
	if withTree {
		s.Tree = &Tree{}
	}
	return s
}

// Clone returns a deep copy of s that later engine calls do not touch.
func (s *State) Clone() *State {
	c := &State{
		Required: slices.Clone(s.Required),
		Surplus:  slices.Clone(s.Surplus),
		Depth:    slices.Clone(s.Depth),
	}
	if s.Tree != nil {
		t := &Tree{Nodes: slices.Clone(s.Tree.Nodes), Roots: slices.Clone(s.Tree.Roots)}
		for i := range t.Nodes {
			t.Nodes[i].Children = slices.Clone(t.Nodes[i].Children)
		}
		c.Tree = t
	}
	return c
}

// MaxDepth returns the deepest level recorded for an item with a positive
// requirement, or 0 if nothing is required.
func (s *State) MaxDepth() int {
	maxDepth := 0
	for id, r := range s.Required {
		if r > 0 && s.Depth[id] > maxDepth {
			maxDepth = s.Depth[id]
		}
	}
	return maxDepth
}

// HasSurplus reports whether any item has leftover credit.
func (s *State) HasSurplus() bool {
	for _, v := range s.Surplus {
		if v > 0 {
			return true
		}
	}
	return false
}

// Engine expands demand through a recipe database.
//
// An Engine owns exactly one State and is not safe for concurrent use. Create
// one engine per request when serving concurrently.
type Engine struct {
	db    *recipe.Database
	opts  Options
	state *State
}

// New creates an engine over db with zeroed state.
func New(db *recipe.Database, opts Options) *Engine {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &Engine{
		db:    db,
		opts:  opts,
		state: newState(db.Items().Len(), opts.Tree),
	}
}

// State returns the engine's current accumulators.
func (e *Engine) State() *State { return e.state }

// Database returns the database the engine reads from.
func (e *Engine) Database() *recipe.Database { return e.db }

// Reset zeroes all accumulators and discards the tree.
func (e *Engine) Reset() {
	clear(e.state.Required)
	clear(e.state.Surplus)
	clear(e.state.Depth)
	if e.opts.Tree {
		e.state.Tree = &Tree{}
	}
}

// Own credits amount of id as pre-existing stock.
func (e *Engine) Own(id item.ID, amount float64) {
	e.state.Surplus[id] += amount
}

// Expand credits owned stock and then demands every target in order, all on
// the engine's current state. Targets interact through shared surplus: a
// co-product credited while expanding one target offsets later demand, never
// earlier demand.
//
// Expand does not reset the state; call [Engine.Reset] between independent
// requests. The returned State is the engine's own and is overwritten by the
// next Reset or Expand; use [State.Clone] to keep a result.
func (e *Engine) Expand(ctx context.Context, targets, owned []item.Amount) (*State, error) {
	hooks := observability.Engine()
	hooks.OnExpandStart(ctx, len(targets), len(owned))
	start := time.Now()

	err := e.expand(targets, owned)

	hooks.OnExpandComplete(ctx, len(targets), e.state.MaxDepth(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return e.state, nil
}

func (e *Engine) expand(targets, owned []item.Amount) error {
	reg := e.db.Items()
	for _, a := range slices.Concat(owned, targets) {
		if !reg.Valid(a.Item) {
			return ferrors.Wrap(ferrors.ErrCodeNotFound, recipe.ErrUnknownItem, "item id %d", a.Item)
		}
		if err := ferrors.ValidateAmount(a.Amount); err != nil {
			return fmt.Errorf("%s: %w", reg.Name(a.Item), err)
		}
	}

	for _, a := range owned {
		e.Own(a.Item, a.Amount)
	}
	for _, a := range targets {
		root := noParent
		if e.state.Tree != nil {
			root = e.state.Tree.addRoot(a)
		}
		if err := e.demand(a.Item, a.Amount, 0, root); err != nil {
			return err
		}
	}
	return nil
}

// Demand demands amount of id at depth 0 on the current state.
func (e *Engine) Demand(id item.ID, amount float64) error {
	if !e.db.Items().Valid(id) {
		return ferrors.Wrap(ferrors.ErrCodeNotFound, recipe.ErrUnknownItem, "item id %d", id)
	}
	root := noParent
	if e.state.Tree != nil {
		root = e.state.Tree.addRoot(item.Amount{Amount: amount, Item: id})
	}
	return e.demand(id, amount, 0, root)
}

// demand records gross demand for id, nets it against surplus, and expands
// whatever remains through the selected recipe. node is id's tree node, or
// noParent when no tree is recorded.
func (e *Engine) demand(id item.ID, amount float64, depth int, node int) error {
	if depth > e.opts.MaxDepth {
		return ferrors.Wrap(ferrors.ErrCodeCycle, ErrDepthExceeded,
			"%s demanded at depth %d (max %d), the recipe graph likely has a cycle",
			e.db.Items().Name(id), depth, e.opts.MaxDepth)
	}

	s := e.state
	s.Required[id] += amount
	s.Depth[id] = max(s.Depth[id], depth)

	net := amount - s.Surplus[id]
	s.Surplus[id] = max(0, -net)
	net = max(0, net)

	r, ok := e.db.Recipe(id)
	if !ok {
		return nil
	}
	// NewDatabase guarantees a positive yield for every result.
	yield, _ := r.AmountOf(id)
	runs := net / yield

	for _, ing := range r.Ingredients {
		need := ing.Amount * runs
		child := noParent
		if s.Tree != nil {
			child = s.Tree.addChild(node, item.Amount{Amount: need, Item: ing.Item}, depth+1)
		}
		if err := e.demand(ing.Item, need, depth+1, child); err != nil {
			return err
		}
	}

	for _, res := range r.Results {
		if res.Item != id {
			s.Surplus[res.Item] += runs * res.Amount
		}
	}
	return nil
}
